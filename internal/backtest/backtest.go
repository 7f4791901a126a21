// Package backtest replays a day of recorded market data through a trader, enforcing position
// limits, matching orders against the book and the bot trades, and marking the account to fair value.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"prosperity-go/internal/datamodel"
	"prosperity-go/internal/exchange"
	"prosperity-go/internal/execution"
	"prosperity-go/internal/marketdata"
	"prosperity-go/internal/metrics"
	"prosperity-go/internal/paper"
	"prosperity-go/internal/risk"
	"prosperity-go/internal/strategy"
)

// FairFunc prices a product from its book; ok is false when no price can be formed.
type FairFunc func(depth *datamodel.OrderDepth) (float64, bool)

// MidFair marks a product at the mid of its best bid and ask.
func MidFair(depth *datamodel.OrderDepth) (float64, bool) { return depth.MidPrice() }

// Fixed marks a product at a constant.
func Fixed(v float64) FairFunc {
	return func(*datamodel.OrderDepth) (float64, bool) { return v, true }
}

// ErrNoData is returned when the backtester has no book to replay.
var ErrNoData = errors.New("backtest: no price data")

// Backtester replays one day. Zero-valued optional fields fall back to sensible defaults.
type Backtester struct {
	Trader    strategy.Trader
	Listings  map[datamodel.Symbol]datamodel.Listing
	Limits    risk.Limits
	FairMarks map[datamodel.Product]FairFunc
	Book      *marketdata.Book
	Trades    *marketdata.TradeTape
	Recorder  paper.FillRecorder
	Log       zerolog.Logger
}

// Result summarises a run.
type Result struct {
	RunID      string
	Day        int
	PnL        map[datamodel.Product]decimal.Decimal
	Total      decimal.Decimal
	Positions  map[datamodel.Product]int
	Fills      []execution.Fill
	Activities []marketdata.PriceRow
	Trades     []marketdata.TradeRow
	Sandbox    []marketdata.SandboxEntry
	Rejected   int
}

// Run replays every timestamp of the book in order. A trader error aborts the run.
func (b *Backtester) Run(ctx context.Context) (*Result, error) {
	if b.Book == nil || len(b.Book.Timestamps()) == 0 {
		return nil, ErrNoData
	}
	if b.Trader == nil {
		return nil, errors.New("backtest: trader required")
	}
	runID := uuid.NewString()
	log := b.Log.With().Str("run", runID).Int("day", b.Book.Day).Logger()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	feed := exchange.NewFeed(b.Book, log, exchange.WithListings(b.Listings), exchange.WithTrades(b.Trades))
	snapshots := make(chan exchange.Snapshot, 64)
	feedErr := make(chan error, 1)
	go func() { feedErr <- feed.Run(ctx, snapshots) }()

	run := &runner{
		Backtester: b,
		log:        log,
		exec:       execution.NewExecutor(log),
		account:    paper.NewAccount(),
		marks:      make(map[datamodel.Product]decimal.Decimal),
		result: &Result{
			RunID:     runID,
			Day:       b.Book.Day,
			PnL:       make(map[datamodel.Product]decimal.Decimal),
			Positions: make(map[datamodel.Product]int),
		},
	}
	for snap := range snapshots {
		if err := run.step(snap); err != nil {
			cancel()
			for range snapshots {
			}
			return nil, err
		}
	}
	if err := <-feedErr; err != nil {
		return nil, fmt.Errorf("replay day %d: %w", b.Book.Day, err)
	}

	run.finish()
	log.Info().Str("total_pnl", run.result.Total.StringFixed(1)).Int("fills", len(run.result.Fills)).Int("rejected", run.result.Rejected).Msg("backtest complete")
	return run.result, nil
}

type runner struct {
	*Backtester
	log     zerolog.Logger
	exec    *execution.Executor
	account *paper.Account
	marks   map[datamodel.Product]decimal.Decimal
	result  *Result

	started    bool
	traderData string
	ownTrades  map[datamodel.Symbol][]datamodel.Trade
	seenTrades map[datamodel.Symbol][]datamodel.Trade
}

func (r *runner) step(snap exchange.Snapshot) error {
	state := snap.State
	ts := snap.Timestamp
	if r.started {
		state.TraderData = r.traderData
	}
	r.started = true
	for sym := range state.OrderDepths {
		state.Position[sym] = r.account.Position(sym)
		state.OwnTrades[sym] = r.ownTrades[sym]
		state.MarketTrades[sym] = r.seenTrades[sym]
	}
	books := make(map[datamodel.Symbol]*datamodel.OrderDepth, len(state.OrderDepths))
	for sym, depth := range state.OrderDepths {
		books[sym] = depth.Clone()
	}
	quoted := make(map[datamodel.Symbol]bool, len(books))
	for sym := range books {
		quoted[sym] = true
	}

	res, err := r.Trader.Run(state)
	if err != nil {
		return fmt.Errorf("trader %s at %d/%d: %w", r.Trader.Name(), snap.Day, ts, err)
	}
	r.traderData = res.TraderData

	market := make(map[datamodel.Symbol][]*marketTrade, len(snap.MarketTrades))
	for sym, trades := range snap.MarketTrades {
		market[sym] = newMarketTrades(trades)
	}

	var lambda []string
	own := make(map[datamodel.Symbol][]datamodel.Trade)
	for _, sym := range sortedSymbols(res.Orders) {
		orders := res.Orders[sym]
		for _, o := range orders {
			_ = r.exec.Submit(ts, o)
			lambda = append(lambda, o.String())
		}
		depth, ok := books[sym]
		if !ok {
			r.log.Warn().Int("ts", ts).Str("product", sym).Msg("orders for unquoted product dropped")
			continue
		}
		position := r.account.Position(sym)
		if !r.Limits.Allow(sym, position, orders) {
			limit, _ := r.Limits.Limit(sym)
			r.log.Warn().Int("ts", ts).Str("product", sym).Int("position", position).Int("limit", limit).Int("orders", len(orders)).Msg("orders exceed position limit; cancelled")
			metrics.RejectedOrdersTotal.WithLabelValues(sym).Add(float64(len(orders)))
			r.result.Rejected += len(orders)
			continue
		}
		for _, o := range orders {
			for _, tr := range match(o, depth, market[sym], ts) {
				if err := r.fill(snap.Day, tr); err != nil {
					return err
				}
				own[sym] = append(own[sym], tr)
			}
		}
	}

	r.ownTrades = own
	r.seenTrades = leftovers(market)
	r.recordTrades(snap, own)
	r.result.Sandbox = append(r.result.Sandbox, marketdata.SandboxEntry{
		SandboxLog:     "",
		LambdaLog:      strings.Join(lambda, " "),
		TraderDataSize: len(res.TraderData),
		Timestamp:      ts,
	})
	r.mark(snap.Timestamp, quoted)
	return nil
}

func (r *runner) fill(day int, tr datamodel.Trade) error {
	side, counterparty := execution.Buy, tr.Seller
	if tr.IsOwnSell() {
		side, counterparty = execution.Sell, tr.Buyer
	}
	if err := r.account.Fill(tr.Symbol, side, tr.Quantity, tr.Price); err != nil {
		return fmt.Errorf("fill %s: %w", tr, err)
	}
	fill := execution.Fill{
		RunID:        r.result.RunID,
		Day:          day,
		Timestamp:    tr.Timestamp,
		Symbol:       tr.Symbol,
		Side:         side,
		Price:        tr.Price,
		Qty:          tr.Quantity,
		Counterparty: counterparty,
	}
	r.result.Fills = append(r.result.Fills, fill)
	if r.Recorder != nil {
		r.Recorder.Record(fill)
	}
	metrics.FillsTotal.WithLabelValues(tr.Symbol, string(side)).Add(float64(tr.Quantity))
	r.log.Debug().Int("ts", tr.Timestamp).Str("product", tr.Symbol).Str("side", string(side)).Int("qty", tr.Quantity).Int("px", tr.Price).Msg("fill")
	return nil
}

func (r *runner) recordTrades(snap exchange.Snapshot, own map[datamodel.Symbol][]datamodel.Trade) {
	for _, sym := range sortedSymbols(snap.MarketTrades) {
		for _, tr := range snap.MarketTrades[sym] {
			r.result.Trades = append(r.result.Trades, r.tradeRow(tr))
		}
	}
	for _, sym := range sortedSymbols(own) {
		for _, tr := range own[sym] {
			r.result.Trades = append(r.result.Trades, r.tradeRow(tr))
		}
	}
}

func (r *runner) tradeRow(tr datamodel.Trade) marketdata.TradeRow {
	currency := marketdata.DefaultDenomination
	if listing, ok := r.Listings[tr.Symbol]; ok && listing.Denomination != "" {
		currency = listing.Denomination
	}
	return marketdata.TradeRow{
		Timestamp: tr.Timestamp,
		Buyer:     tr.Buyer,
		Seller:    tr.Seller,
		Symbol:    tr.Symbol,
		Currency:  currency,
		Price:     float64(tr.Price),
		Quantity:  tr.Quantity,
	}
}

// mark prices every quoted product at its fair value and appends the activity rows for the tick.
// A product whose fair value cannot be formed keeps its previous mark.
func (r *runner) mark(ts int, quoted map[datamodel.Symbol]bool) {
	rows := r.Book.Rows(ts)
	for _, row := range rows {
		if !quoted[row.Product] {
			continue
		}
		fair := MidFair
		if f, ok := r.FairMarks[row.Product]; ok && f != nil {
			fair = f
		}
		if v, ok := fair(row.Depth()); ok {
			r.marks[row.Product] = decimal.NewFromFloat(v)
		}
	}
	pnl := r.account.Snapshot(r.marks)
	for _, row := range rows {
		if !quoted[row.Product] {
			continue
		}
		row.ProfitAndLoss = 0
		if p, ok := pnl.Positions[row.Product]; ok {
			row.ProfitAndLoss = p.PnL.InexactFloat64()
		}
		r.result.Activities = append(r.result.Activities, row)
	}
}

func (r *runner) finish() {
	snap := r.account.Snapshot(r.marks)
	for sym, p := range snap.Positions {
		r.result.PnL[sym] = p.PnL
		r.result.Positions[sym] = p.Qty
		metrics.PnL.WithLabelValues(sym).Set(p.PnL.InexactFloat64())
	}
	r.result.Total = snap.TotalPnL
}

// Products lists the products with a PnL entry in sorted order.
func (res *Result) Products() []datamodel.Product {
	out := make([]datamodel.Product, 0, len(res.PnL))
	for p := range res.PnL {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// SubmissionLog assembles the run in submission log layout.
func (res *Result) SubmissionLog() *marketdata.Log {
	return &marketdata.Log{Sandbox: res.Sandbox, Prices: res.Activities, Trades: res.Trades}
}

// WriteLog writes the run as a Prosperity submission log.
func (res *Result) WriteLog(w io.Writer) error {
	return marketdata.WriteLog(w, res.SubmissionLog())
}

// Combine chains consecutive days into one result. Activity PnL is carried forward per product
// so the merged log reads as one continuous session.
func Combine(results ...*Result) *Result {
	out := &Result{
		PnL:       make(map[datamodel.Product]decimal.Decimal),
		Positions: make(map[datamodel.Product]int),
	}
	carried := make(map[datamodel.Product]float64)
	for i, res := range results {
		if res == nil {
			continue
		}
		if i == 0 {
			out.RunID, out.Day = res.RunID, res.Day
		}
		for _, row := range res.Activities {
			row.ProfitAndLoss += carried[row.Product]
			out.Activities = append(out.Activities, row)
		}
		for sym, pnl := range res.PnL {
			out.PnL[sym] = out.PnL[sym].Add(pnl)
			carried[sym] += pnl.InexactFloat64()
		}
		for sym, qty := range res.Positions {
			out.Positions[sym] = qty
		}
		out.Total = out.Total.Add(res.Total)
		out.Fills = append(out.Fills, res.Fills...)
		out.Trades = append(out.Trades, res.Trades...)
		out.Sandbox = append(out.Sandbox, res.Sandbox...)
		out.Rejected += res.Rejected
	}
	return out
}

func sortedSymbols[T any](m map[datamodel.Symbol]T) []datamodel.Symbol {
	out := make([]datamodel.Symbol, 0, len(m))
	for sym := range m {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
