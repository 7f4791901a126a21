package marketdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Section markers of a Prosperity submission log.
const (
	SandboxMarker    = "Sandbox logs:"
	ActivitiesMarker = "Activities log:"
	TradesMarker     = "Trade History:"
)

// ErrMalformedLog is returned when a submission log lacks one of its sections.
var ErrMalformedLog = errors.New("malformed submission log")

// SandboxEntry is the per-tick record in the sandbox section.
type SandboxEntry struct {
	SandboxLog     string `json:"sandboxLog"`
	LambdaLog      string `json:"lambdaLog"`
	TraderDataSize int    `json:"traderDataSize"`
	Timestamp      int    `json:"timestamp"`
}

// Log is a parsed submission log.
type Log struct {
	Sandbox []SandboxEntry
	Prices  []PriceRow
	Trades  []TradeRow
}

// ParseLog splits a submission log into its sandbox entries, activity rows, and trade history.
func ParseLog(r io.Reader) (*Log, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	content := string(raw)

	sandboxAt := strings.Index(content, SandboxMarker)
	activitiesAt := strings.Index(content, ActivitiesMarker)
	tradesAt := strings.Index(content, TradesMarker)
	if sandboxAt < 0 || activitiesAt < sandboxAt || tradesAt < activitiesAt {
		return nil, ErrMalformedLog
	}

	sandboxText := content[sandboxAt+len(SandboxMarker) : activitiesAt]
	activitiesText := strings.TrimSpace(content[activitiesAt+len(ActivitiesMarker) : tradesAt])
	tradesText := strings.TrimSpace(content[tradesAt+len(TradesMarker):])

	out := &Log{}
	dec := json.NewDecoder(strings.NewReader(sandboxText))
	for dec.More() {
		var entry SandboxEntry
		if err := dec.Decode(&entry); err != nil {
			return nil, fmt.Errorf("decode sandbox entry: %w", err)
		}
		out.Sandbox = append(out.Sandbox, entry)
	}

	if activitiesText != "" {
		if out.Prices, err = ReadPrices(strings.NewReader(activitiesText)); err != nil {
			return nil, fmt.Errorf("activities: %w", err)
		}
	}
	if tradesText != "" {
		if err := json.Unmarshal([]byte(tradesText), &out.Trades); err != nil {
			return nil, fmt.Errorf("decode trade history: %w", err)
		}
	}
	return out, nil
}

// WriteLog renders the three sections in submission log layout.
func WriteLog(w io.Writer, lg *Log) error {
	var buf bytes.Buffer
	buf.WriteString(SandboxMarker + "\n")
	for _, entry := range lg.Sandbox {
		data, err := json.MarshalIndent(entry, "", "  ")
		if err != nil {
			return fmt.Errorf("encode sandbox entry: %w", err)
		}
		buf.Write(data)
		buf.WriteString("\n")
	}
	buf.WriteString("\n\n\n" + ActivitiesMarker + "\n")
	if err := WritePrices(&buf, lg.Prices); err != nil {
		return fmt.Errorf("write activities: %w", err)
	}
	buf.WriteString("\n\n\n\n" + TradesMarker + "\n")
	trades := lg.Trades
	if trades == nil {
		trades = []TradeRow{}
	}
	data, err := json.MarshalIndent(trades, "", "  ")
	if err != nil {
		return fmt.Errorf("encode trade history: %w", err)
	}
	buf.Write(data)
	buf.WriteString("\n")
	_, err = w.Write(buf.Bytes())
	return err
}
