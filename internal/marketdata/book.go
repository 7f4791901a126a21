package marketdata

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"prosperity-go/internal/datamodel"
	"prosperity-go/internal/traderdata"
)

// DefaultDenomination is the currency every Prosperity product is quoted in.
const DefaultDenomination = "SEASHELLS"

// Book indexes one day of price rows by timestamp.
type Book struct {
	Day        int
	rows       map[int][]PriceRow
	timestamps []int
}

// NewBook indexes rows; rows from other days than the first are kept under their own timestamps,
// so callers should split multi-day exports with SplitDays first.
func NewBook(rows []PriceRow) *Book {
	b := &Book{rows: make(map[int][]PriceRow)}
	for i, row := range rows {
		if i == 0 {
			b.Day = row.Day
		}
		if _, seen := b.rows[row.Timestamp]; !seen {
			b.timestamps = append(b.timestamps, row.Timestamp)
		}
		b.rows[row.Timestamp] = append(b.rows[row.Timestamp], row)
	}
	sort.Ints(b.timestamps)
	for _, ts := range b.timestamps {
		bucket := b.rows[ts]
		sort.Slice(bucket, func(i, j int) bool { return bucket[i].Product < bucket[j].Product })
	}
	return b
}

// SplitDays groups rows by day and returns the days in ascending order.
func SplitDays(rows []PriceRow) ([]int, map[int][]PriceRow) {
	byDay := make(map[int][]PriceRow)
	var days []int
	for _, row := range rows {
		if _, ok := byDay[row.Day]; !ok {
			days = append(days, row.Day)
		}
		byDay[row.Day] = append(byDay[row.Day], row)
	}
	sort.Ints(days)
	return days, byDay
}

// Timestamps returns every timestamp in ascending order.
func (b *Book) Timestamps() []int {
	out := make([]int, len(b.timestamps))
	copy(out, b.timestamps)
	return out
}

// Rows returns the product rows at ts sorted by product.
func (b *Book) Rows(ts int) []PriceRow {
	return b.rows[ts]
}

// Products lists every product seen in the book.
func (b *Book) Products() []string {
	seen := make(map[string]struct{})
	for _, bucket := range b.rows {
		for _, row := range bucket {
			seen[row.Product] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// DefaultListings lists every product in the book quoted in SEASHELLS.
func (b *Book) DefaultListings() map[datamodel.Symbol]datamodel.Listing {
	listings := make(map[datamodel.Symbol]datamodel.Listing)
	for _, p := range b.Products() {
		listings[p] = datamodel.Listing{Symbol: p, Product: p, Denomination: DefaultDenomination}
	}
	return listings
}

// StateAt builds a flat-position trading state with every product quoted at ts.
// Listings missing from the supplied map default to the product quoted in SEASHELLS.
func (b *Book) StateAt(ts int, listings map[datamodel.Symbol]datamodel.Listing) *datamodel.TradingState {
	state := emptyState(ts)
	for _, row := range b.rows[ts] {
		addRow(state, row, listings)
	}
	return state
}

// StateFromRow builds a single-product trading state from one price row.
func StateFromRow(row PriceRow) *datamodel.TradingState {
	state := emptyState(row.Timestamp)
	addRow(state, row, nil)
	return state
}

func emptyState(ts int) *datamodel.TradingState {
	return &datamodel.TradingState{
		TraderData:   traderdata.Sample,
		Timestamp:    ts,
		Listings:     make(map[datamodel.Symbol]datamodel.Listing),
		OrderDepths:  make(map[datamodel.Symbol]*datamodel.OrderDepth),
		OwnTrades:    make(map[datamodel.Symbol][]datamodel.Trade),
		MarketTrades: make(map[datamodel.Symbol][]datamodel.Trade),
		Position:     make(map[datamodel.Product]int),
		Observations: datamodel.Observation{
			PlainValueObservations: make(map[datamodel.Product]float64),
			ConversionObservations: make(map[datamodel.Product]datamodel.ConversionObservation),
		},
	}
}

func addRow(state *datamodel.TradingState, row PriceRow, listings map[datamodel.Symbol]datamodel.Listing) {
	listing, ok := listings[row.Product]
	if !ok {
		listing = datamodel.Listing{Symbol: row.Product, Product: row.Product, Denomination: DefaultDenomination}
	}
	state.Listings[row.Product] = listing
	state.OrderDepths[row.Product] = row.Depth()
	state.OwnTrades[row.Product] = nil
	state.MarketTrades[row.Product] = nil
	state.Position[row.Product] = 0
	state.Observations.PlainValueObservations[row.Product] = row.MidPrice
	state.Observations.ConversionObservations[row.Product] = datamodel.ConversionObservation{}
}

// TradeTape indexes market trades by timestamp.
type TradeTape struct {
	byTs map[int][]TradeRow
}

// NewTradeTape indexes trades.
func NewTradeTape(trades []TradeRow) *TradeTape {
	t := &TradeTape{byTs: make(map[int][]TradeRow)}
	for _, tr := range trades {
		t.byTs[tr.Timestamp] = append(t.byTs[tr.Timestamp], tr)
	}
	return t
}

// At returns the trades printed at ts.
func (t *TradeTape) At(ts int) []TradeRow {
	if t == nil {
		return nil
	}
	return t.byTs[ts]
}

// BySymbol groups the trades at ts per symbol as datamodel trades.
func (t *TradeTape) BySymbol(ts int) map[datamodel.Symbol][]datamodel.Trade {
	out := make(map[datamodel.Symbol][]datamodel.Trade)
	for _, tr := range t.At(ts) {
		out[tr.Symbol] = append(out[tr.Symbol], tr.Trade())
	}
	return out
}

// LoadDay loads one day of prices and, when the file exists, its market trades.
func LoadDay(pricesPath, tradesPath string) (*Book, *TradeTape, error) {
	rows, err := LoadPricesFile(pricesPath)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s: no price rows", pricesPath)
	}
	var tape *TradeTape
	trades, err := LoadTradesFile(tradesPath)
	switch {
	case err == nil:
		tape = NewTradeTape(trades)
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, nil, err
	}
	return NewBook(rows), tape, nil
}
