package strategy

import (
	"fmt"
	"math"

	"prosperity-go/internal/datamodel"
)

// ImbalanceMomentum combines resting order book imbalance with mid price momentum over a sliding
// window of ticks, and crosses the spread when the blended score clears the threshold.
type ImbalanceMomentum struct {
	symbol    datamodel.Symbol
	levels    int
	threshold float64
	window    int
	qty       int
}

// NewImbalanceMomentum builds the strategy using the top levels of the book and a look-back of window ticks.
func NewImbalanceMomentum(symbol datamodel.Symbol, levels int, threshold float64, window, qty int) *ImbalanceMomentum {
	if levels <= 0 {
		levels = 3
	}
	if threshold <= 0 {
		threshold = 0.25
	}
	if window <= 0 {
		window = 20
	}
	if qty <= 0 {
		qty = 1
	}
	return &ImbalanceMomentum{symbol: symbol, levels: levels, threshold: threshold, window: window, qty: qty}
}

// Name returns the identifier for the strategy implementation.
func (s *ImbalanceMomentum) Name() string { return "ImbalanceMomentum" }

// Products lists the traded symbol.
func (s *ImbalanceMomentum) Products() []datamodel.Symbol { return []datamodel.Symbol{s.symbol} }

// Decide scores the book and the recent mids, then records the mid.
func (s *ImbalanceMomentum) Decide(ctx Context) []datamodel.Order {
	q, ok := ctx.Quote(s.symbol)
	if !ok {
		return nil
	}
	ctx.Memory.Push(s.symbol, q.Mid, s.window)

	obi := Imbalance(ctx.State.OrderDepths[s.symbol], s.levels)
	momentum := Momentum(ctx.Memory.Series(s.symbol))
	score := 0.6*obi + 0.4*momentum
	if math.Abs(score) < s.threshold {
		return nil
	}

	reason := fmt.Sprintf("obi=%.2f momentum=%.2f", obi, momentum)
	ctx.Log.Debug().Str("product", s.symbol).Float64("score", score).Msg(reason)
	if score > 0 {
		return []datamodel.Order{buy(s.symbol, q.Ask, s.qty)}
	}
	return []datamodel.Order{sell(s.symbol, q.Bid, s.qty)}
}

// Imbalance measures (bid volume - ask volume) / total over the top levels, in [-1, 1].
func Imbalance(depth *datamodel.OrderDepth, levels int) float64 {
	var bidVol, askVol float64
	for i, lvl := range depth.Bids() {
		if i >= levels {
			break
		}
		bidVol += math.Abs(float64(lvl.Volume))
	}
	for i, lvl := range depth.Asks() {
		if i >= levels {
			break
		}
		askVol += math.Abs(float64(lvl.Volume))
	}
	total := bidVol + askVol
	if total == 0 {
		return 0
	}
	return clamp((bidVol-askVol)/total, -1, 1)
}

// Momentum squashes the relative move from the oldest to the newest mid into [-1, 1].
func Momentum(mids []float64) float64 {
	if len(mids) < 2 || mids[0] <= 0 {
		return 0
	}
	raw := (mids[len(mids)-1] - mids[0]) / mids[0]
	return clamp(math.Tanh(raw*3), -1, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
