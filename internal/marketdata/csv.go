// Package marketdata reads Prosperity price and trade exports and turns them into trading states.
package marketdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"prosperity-go/internal/datamodel"
)

// BookLevels is the number of book levels in a price export.
const BookLevels = 3

// PricesHeader is the column layout of price exports and activity logs.
var PricesHeader = []string{
	"day", "timestamp", "product",
	"bid_price_1", "bid_volume_1", "bid_price_2", "bid_volume_2", "bid_price_3", "bid_volume_3",
	"ask_price_1", "ask_volume_1", "ask_price_2", "ask_volume_2", "ask_price_3", "ask_volume_3",
	"mid_price", "profit_and_loss",
}

// TradesHeader is the column layout of trade exports.
var TradesHeader = []string{"timestamp", "buyer", "seller", "symbol", "currency", "price", "quantity"}

// ErrMissingColumn is returned when a required header column is absent.
var ErrMissingColumn = errors.New("missing column")

// PriceRow is one product's book at one timestamp. Ask volumes are kept positive as exported.
type PriceRow struct {
	Day           int
	Timestamp     int
	Product       string
	Bids          []datamodel.Level
	Asks          []datamodel.Level
	MidPrice      float64
	ProfitAndLoss float64
}

// Depth converts the row into an order depth with negative sell volumes.
func (r PriceRow) Depth() *datamodel.OrderDepth {
	depth := datamodel.NewOrderDepth()
	for _, lvl := range r.Bids {
		depth.BuyOrders[lvl.Price] += lvl.Volume
	}
	for _, lvl := range r.Asks {
		depth.SellOrders[lvl.Price] -= lvl.Volume
	}
	return depth
}

// TradeRow is one market trade from a trade export.
type TradeRow struct {
	Timestamp int     `json:"timestamp"`
	Buyer     string  `json:"buyer"`
	Seller    string  `json:"seller"`
	Symbol    string  `json:"symbol"`
	Currency  string  `json:"currency"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Trade converts the row into the datamodel trade handed to traders.
func (r TradeRow) Trade() datamodel.Trade {
	return datamodel.Trade{
		Symbol:    r.Symbol,
		Price:     int(math.Round(r.Price)),
		Quantity:  r.Quantity,
		Buyer:     r.Buyer,
		Seller:    r.Seller,
		Timestamp: r.Timestamp,
	}
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

type columns map[string]int

func indexHeader(header []string, required []string) (columns, error) {
	cols := make(columns, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return cols, nil
}

func (c columns) str(rec []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

// num parses a numeric cell; ok is false for an empty cell.
func (c columns) num(rec []string, name string) (float64, bool, error) {
	raw := c.str(rec, name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("column %s: %w", name, err)
	}
	return v, true, nil
}

func (c columns) integer(rec []string, name string) (int, bool, error) {
	v, ok, err := c.num(rec, name)
	return int(math.Round(v)), ok, err
}

// ReadPrices parses a semicolon separated price export.
func ReadPrices(r io.Reader) ([]PriceRow, error) {
	reader := newReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read prices header: %w", err)
	}
	cols, err := indexHeader(header, []string{"day", "timestamp", "product"})
	if err != nil {
		return nil, err
	}

	var rows []PriceRow
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read prices line %d: %w", line, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row, err := parsePriceRecord(cols, rec)
		if err != nil {
			return nil, fmt.Errorf("prices line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parsePriceRecord(cols columns, rec []string) (PriceRow, error) {
	var row PriceRow
	var err error
	if row.Day, _, err = cols.integer(rec, "day"); err != nil {
		return row, err
	}
	if row.Timestamp, _, err = cols.integer(rec, "timestamp"); err != nil {
		return row, err
	}
	row.Product = cols.str(rec, "product")
	if row.Product == "" {
		return row, errors.New("empty product")
	}
	if row.Bids, err = parseLevels(cols, rec, "bid"); err != nil {
		return row, err
	}
	if row.Asks, err = parseLevels(cols, rec, "ask"); err != nil {
		return row, err
	}
	if row.MidPrice, _, err = cols.num(rec, "mid_price"); err != nil {
		return row, err
	}
	if row.ProfitAndLoss, _, err = cols.num(rec, "profit_and_loss"); err != nil {
		return row, err
	}
	return row, nil
}

func parseLevels(cols columns, rec []string, side string) ([]datamodel.Level, error) {
	levels := make([]datamodel.Level, 0, BookLevels)
	for i := 1; i <= BookLevels; i++ {
		px, okPx, err := cols.integer(rec, fmt.Sprintf("%s_price_%d", side, i))
		if err != nil {
			return nil, err
		}
		vol, okVol, err := cols.integer(rec, fmt.Sprintf("%s_volume_%d", side, i))
		if err != nil {
			return nil, err
		}
		if !okPx || !okVol || vol == 0 {
			continue
		}
		if vol < 0 {
			vol = -vol
		}
		levels = append(levels, datamodel.Level{Price: px, Volume: vol})
	}
	return levels, nil
}

// ReadTrades parses a semicolon separated trade export.
func ReadTrades(r io.Reader) ([]TradeRow, error) {
	reader := newReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read trades header: %w", err)
	}
	cols, err := indexHeader(header, []string{"timestamp", "symbol", "price", "quantity"})
	if err != nil {
		return nil, err
	}

	var trades []TradeRow
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read trades line %d: %w", line, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		var tr TradeRow
		if tr.Timestamp, _, err = cols.integer(rec, "timestamp"); err != nil {
			return nil, fmt.Errorf("trades line %d: %w", line, err)
		}
		if tr.Price, _, err = cols.num(rec, "price"); err != nil {
			return nil, fmt.Errorf("trades line %d: %w", line, err)
		}
		if tr.Quantity, _, err = cols.integer(rec, "quantity"); err != nil {
			return nil, fmt.Errorf("trades line %d: %w", line, err)
		}
		tr.Buyer = cols.str(rec, "buyer")
		tr.Seller = cols.str(rec, "seller")
		tr.Symbol = cols.str(rec, "symbol")
		tr.Currency = cols.str(rec, "currency")
		trades = append(trades, tr)
	}
	return trades, nil
}

// LoadPricesFile opens and parses a price export.
func LoadPricesFile(path string) ([]PriceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prices: %w", err)
	}
	defer f.Close()
	return ReadPrices(f)
}

// LoadTradesFile opens and parses a trade export.
func LoadTradesFile(path string) ([]TradeRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trades: %w", err)
	}
	defer f.Close()
	return ReadTrades(f)
}

// WritePrices renders rows in the export layout, used for activity logs.
func WritePrices(w io.Writer, rows []PriceRow) error {
	writer := csv.NewWriter(w)
	writer.Comma = ';'
	if err := writer.Write(PricesHeader); err != nil {
		return err
	}
	for _, row := range rows {
		rec := make([]string, 0, len(PricesHeader))
		rec = append(rec, strconv.Itoa(row.Day), strconv.Itoa(row.Timestamp), row.Product)
		rec = appendLevels(rec, row.Bids)
		rec = appendLevels(rec, row.Asks)
		rec = append(rec, formatFloat(row.MidPrice), formatFloat(row.ProfitAndLoss))
		if err := writer.Write(rec); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func appendLevels(rec []string, levels []datamodel.Level) []string {
	for i := 0; i < BookLevels; i++ {
		if i < len(levels) {
			rec = append(rec, strconv.Itoa(levels[i].Price), strconv.Itoa(levels[i].Volume))
			continue
		}
		rec = append(rec, "", "")
	}
	return rec
}

func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
