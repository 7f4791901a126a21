package marketdata

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

var (
	pricesPath = filepath.Join("..", "..", "testdata", "prices_round_2_day_0.csv")
	tradesPath = filepath.Join("..", "..", "testdata", "trades_round_2_day_0.csv")
)

func TestLoadPricesFile(t *testing.T) {
	rows, err := LoadPricesFile(pricesPath)
	if err != nil {
		t.Fatalf("LoadPricesFile error: %v", err)
	}
	if len(rows) != 9 {
		t.Fatalf("expected 9 rows, got %d", len(rows))
	}
	kelp := rows[1]
	if kelp.Product != "KELP" || kelp.Timestamp != 0 {
		t.Fatalf("unexpected row %+v", kelp)
	}
	if len(kelp.Bids) != 3 || len(kelp.Asks) != 1 {
		t.Fatalf("expected 3 bids and 1 ask, got %+v / %+v", kelp.Bids, kelp.Asks)
	}
	if kelp.Asks[0].Price != 2029 || kelp.Asks[0].Volume != 31 {
		t.Fatalf("unexpected ask level %+v", kelp.Asks[0])
	}
	if kelp.MidPrice != 2028.5 {
		t.Fatalf("unexpected mid %.1f", kelp.MidPrice)
	}

	depth := kelp.Depth()
	if depth.SellOrders[2029] != -31 {
		t.Fatalf("expected negated sell volume, got %d", depth.SellOrders[2029])
	}
	if depth.BuyOrders[2025] != 29 {
		t.Fatalf("unexpected buy volume %d", depth.BuyOrders[2025])
	}
}

func TestReadPricesMissingColumn(t *testing.T) {
	_, err := ReadPrices(strings.NewReader("day;timestamp\n0;0\n"))
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestReadPricesBadNumber(t *testing.T) {
	_, err := ReadPrices(strings.NewReader("day;timestamp;product;bid_price_1;bid_volume_1\n0;x;KELP;1;1\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line-numbered parse error, got %v", err)
	}
}

func TestLoadTradesFile(t *testing.T) {
	trades, err := LoadTradesFile(tradesPath)
	if err != nil {
		t.Fatalf("LoadTradesFile error: %v", err)
	}
	if len(trades) != 4 {
		t.Fatalf("expected 4 trades, got %d", len(trades))
	}
	tr := trades[1].Trade()
	if tr.Symbol != "RAINFOREST_RESIN" || tr.Price != 9999 || tr.Quantity != 4 || tr.Timestamp != 100 {
		t.Fatalf("unexpected trade %+v", tr)
	}
}

func TestBookStateAt(t *testing.T) {
	rows, err := LoadPricesFile(pricesPath)
	if err != nil {
		t.Fatalf("LoadPricesFile error: %v", err)
	}
	book := NewBook(rows)
	ts := book.Timestamps()
	if len(ts) != 3 || ts[0] != 0 || ts[2] != 200 {
		t.Fatalf("unexpected timestamps %v", ts)
	}
	if got := book.Products(); len(got) != 3 || got[0] != "KELP" {
		t.Fatalf("unexpected products %v", got)
	}

	state := book.StateAt(100, nil)
	if state.Timestamp != 100 || len(state.OrderDepths) != 3 {
		t.Fatalf("unexpected state %+v", state)
	}
	if state.TraderData != "SAMPLE" {
		t.Fatalf("expected sample trader data")
	}
	mid, ok := state.OrderDepths["RAINFOREST_RESIN"].MidPrice()
	if !ok || mid != 9996.5 {
		t.Fatalf("unexpected resin mid %.1f", mid)
	}
	if state.Listings["KELP"].Denomination != DefaultDenomination {
		t.Fatalf("expected default denomination")
	}
	if state.Observations.PlainValueObservations["SQUID_INK"] != 1968.5 {
		t.Fatalf("expected mid as plain observation")
	}

	single := StateFromRow(rows[0])
	if len(single.OrderDepths) != 1 || single.PositionOf("RAINFOREST_RESIN") != 0 {
		t.Fatalf("unexpected single-product state")
	}
}

func TestSplitDays(t *testing.T) {
	rows := []PriceRow{{Day: 1, Product: "A"}, {Day: -1, Product: "A"}, {Day: 1, Product: "B"}}
	days, byDay := SplitDays(rows)
	if len(days) != 2 || days[0] != -1 || days[1] != 1 {
		t.Fatalf("unexpected days %v", days)
	}
	if len(byDay[1]) != 2 {
		t.Fatalf("expected 2 rows for day 1")
	}
}

func TestTradeTape(t *testing.T) {
	trades, err := LoadTradesFile(tradesPath)
	if err != nil {
		t.Fatalf("LoadTradesFile error: %v", err)
	}
	tape := NewTradeTape(trades)
	bySym := tape.BySymbol(100)
	if len(bySym) != 2 || len(bySym["SQUID_INK"]) != 1 {
		t.Fatalf("unexpected grouped trades %+v", bySym)
	}
	var nilTape *TradeTape
	if nilTape.At(0) != nil {
		t.Fatalf("expected nil tape to be empty")
	}
}

func TestWriteThenParseLog(t *testing.T) {
	rows, err := LoadPricesFile(pricesPath)
	if err != nil {
		t.Fatalf("LoadPricesFile error: %v", err)
	}
	trades, err := LoadTradesFile(tradesPath)
	if err != nil {
		t.Fatalf("LoadTradesFile error: %v", err)
	}
	in := &Log{
		Sandbox: []SandboxEntry{{LambdaLog: "BUY 5x 9997", Timestamp: 0}, {Timestamp: 100}},
		Prices:  rows,
		Trades:  trades,
	}
	var buf bytes.Buffer
	if err := WriteLog(&buf, in); err != nil {
		t.Fatalf("WriteLog error: %v", err)
	}
	if !strings.Contains(buf.String(), "Activities log:\nday;timestamp;product;") {
		t.Fatalf("unexpected layout:\n%s", buf.String())
	}

	out, err := ParseLog(&buf)
	if err != nil {
		t.Fatalf("ParseLog error: %v", err)
	}
	if len(out.Sandbox) != 2 || out.Sandbox[0].LambdaLog != "BUY 5x 9997" {
		t.Fatalf("unexpected sandbox entries %+v", out.Sandbox)
	}
	if len(out.Prices) != len(rows) || out.Prices[4].Asks[0].Price != rows[4].Asks[0].Price {
		t.Fatalf("activities did not survive the log")
	}
	if len(out.Trades) != len(trades) || out.Trades[2] != trades[2] {
		t.Fatalf("trade history did not survive the log")
	}
}

func TestParseLogMalformed(t *testing.T) {
	if _, err := ParseLog(strings.NewReader("Activities log:\n")); !errors.Is(err, ErrMalformedLog) {
		t.Fatalf("expected ErrMalformedLog, got %v", err)
	}
}

func TestLoadDay(t *testing.T) {
	book, tape, err := LoadDay(pricesPath, tradesPath)
	if err != nil {
		t.Fatalf("LoadDay returned error: %v", err)
	}
	if len(book.Timestamps()) != 3 || tape == nil {
		t.Fatalf("unexpected book %v / tape %v", book.Timestamps(), tape)
	}

	_, tape, err = LoadDay(pricesPath, filepath.Join(t.TempDir(), "missing.csv"))
	if err != nil || tape != nil {
		t.Fatalf("expected a missing trade file to be tolerated, got %v", err)
	}
	if _, _, err := LoadDay(filepath.Join(t.TempDir(), "missing.csv"), ""); err == nil {
		t.Fatalf("expected error for missing prices")
	}
}
