package paper

import (
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"prosperity-go/internal/execution"
)

// FillRecorder captures fills for later inspection.
type FillRecorder interface {
	Record(execution.Fill)
}

type positionState struct {
	Qty     int
	AvgCost decimal.Decimal
	Cash    decimal.Decimal
}

// Account tracks per-product cash flow and positions. Short positions are allowed; the exchange
// bounds them through position limits, not cash.
type Account struct {
	mu        sync.Mutex
	realized  decimal.Decimal
	positions map[string]*positionState
}

// PositionSnapshot exposes a read-only view of a single product.
type PositionSnapshot struct {
	Qty        int
	AvgCost    decimal.Decimal
	Cash       decimal.Decimal
	Mark       decimal.Decimal
	PnL        decimal.Decimal
	Unrealized decimal.Decimal
}

// Snapshot is a marked view of the account.
type Snapshot struct {
	RealizedPnL decimal.Decimal
	TotalPnL    decimal.Decimal
	Positions   map[string]PositionSnapshot
}

// NewAccount constructs a flat account.
func NewAccount() *Account {
	return &Account{positions: make(map[string]*positionState)}
}

func (a *Account) state(symbol string) *positionState {
	st := a.positions[symbol]
	if st == nil {
		st = &positionState{}
		a.positions[symbol] = st
	}
	return st
}

// Fill applies an execution of qty units at price.
func (a *Account) Fill(symbol string, side execution.Side, qty, price int) error {
	if qty <= 0 {
		return errors.New("quantity must be positive")
	}
	if symbol == "" {
		return errors.New("symbol required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	st := a.state(symbol)
	px := decimal.NewFromInt(int64(price))
	notional := px.Mul(decimal.NewFromInt(int64(qty)))

	var signed int
	switch side {
	case execution.Buy:
		signed = qty
		st.Cash = st.Cash.Sub(notional)
	case execution.Sell:
		signed = -qty
		st.Cash = st.Cash.Add(notional)
	default:
		return errors.New("unknown order side")
	}

	prev := st.Qty
	next := prev + signed
	switch {
	case prev == 0 || sameSign(prev, signed):
		// opening or adding: blend the average cost
		total := st.AvgCost.Mul(decimal.NewFromInt(int64(abs(prev)))).Add(notional)
		st.AvgCost = total.Div(decimal.NewFromInt(int64(abs(next))))
	default:
		closed := min(abs(prev), qty)
		diff := px.Sub(st.AvgCost)
		if prev < 0 {
			diff = diff.Neg()
		}
		a.realized = a.realized.Add(diff.Mul(decimal.NewFromInt(int64(closed))))
		switch {
		case next == 0:
			st.AvgCost = decimal.Zero
		case !sameSign(prev, next):
			// flipped through zero: the remainder opens at this price
			st.AvgCost = px
		}
	}
	st.Qty = next
	return nil
}

// Position returns the current position for symbol.
func (a *Account) Position(symbol string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if st := a.positions[symbol]; st != nil {
		return st.Qty
	}
	return 0
}

// Positions returns a copy of all non-zero positions.
func (a *Account) Positions() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]int, len(a.positions))
	for sym, st := range a.positions {
		if st.Qty != 0 {
			out[sym] = st.Qty
		}
	}
	return out
}

// RealizedPnL returns profit and loss locked in by closing trades.
func (a *Account) RealizedPnL() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.realized
}

// Snapshot marks every product to the supplied prices. PnL per product is its cash flow plus
// position times mark; products without a mark contribute their cash only.
func (a *Account) Snapshot(marks map[string]decimal.Decimal) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{
		RealizedPnL: a.realized,
		TotalPnL:    decimal.Zero,
		Positions:   make(map[string]PositionSnapshot, len(a.positions)),
	}
	symbols := make([]string, 0, len(a.positions))
	for sym := range a.positions {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		st := a.positions[sym]
		qty := decimal.NewFromInt(int64(st.Qty))
		mark, ok := marks[sym]
		pnl := st.Cash
		unrealized := decimal.Zero
		if ok {
			pnl = pnl.Add(qty.Mul(mark))
			unrealized = mark.Sub(st.AvgCost).Mul(qty)
		}
		snap.Positions[sym] = PositionSnapshot{
			Qty:        st.Qty,
			AvgCost:    st.AvgCost,
			Cash:       st.Cash,
			Mark:       mark,
			PnL:        pnl,
			Unrealized: unrealized,
		}
		snap.TotalPnL = snap.TotalPnL.Add(pnl)
	}
	return snap
}

func sameSign(a, b int) bool { return (a > 0 && b > 0) || (a < 0 && b < 0) }

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
