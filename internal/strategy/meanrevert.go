package strategy

import (
	"math"

	"prosperity-go/internal/datamodel"
	"prosperity-go/internal/stats"
)

// RollingMeanReverter treats the rolling mean of recent mids, skewed against the current
// position, as fair value and leans into any deviation from it.
type RollingMeanReverter struct {
	symbol      datamodel.Symbol
	window      int
	skewDivisor float64
	minEdge     float64
	multiplier  int
}

// NewRollingMeanReverter builds a reverter over window mids.
func NewRollingMeanReverter(symbol datamodel.Symbol, window int, skewDivisor, minEdge float64, multiplier int) *RollingMeanReverter {
	if window <= 0 {
		window = 10
	}
	if skewDivisor <= 0 {
		skewDivisor = 10
	}
	return &RollingMeanReverter{symbol: symbol, window: window, skewDivisor: skewDivisor, minEdge: minEdge, multiplier: multiplier}
}

// Name returns the identifier for logging.
func (s *RollingMeanReverter) Name() string { return "RollingMeanReverter" }

// Products lists the traded symbol.
func (s *RollingMeanReverter) Products() []datamodel.Symbol { return []datamodel.Symbol{s.symbol} }

// Decide compares the mid against the skewed rolling mean, then records the mid.
func (s *RollingMeanReverter) Decide(ctx Context) []datamodel.Order {
	q, ok := ctx.Quote(s.symbol)
	if !ok {
		return nil
	}
	position := ctx.Position(s.symbol)

	var orders []datamodel.Order
	if history := ctx.Memory.Series(s.symbol); len(history) > s.window {
		fair := stats.Mean(history) - math.RoundToEven(float64(position)/s.skewDivisor)
		switch {
		case q.Mid <= fair:
			px := min(int(math.Floor(fair)), q.Bid+1)
			qty := roundInt(math.Max(fair-float64(px), s.minEdge)*float64(s.multiplier)) - position
			if qty > 0 {
				orders = append(orders, buy(s.symbol, px, qty))
				ctx.Log.Debug().Str("product", s.symbol).Float64("fair", fair).Msgf("BUY %dx %d", qty, px)
			}
		default:
			px := max(int(math.Ceil(fair)), q.Ask-1)
			qty := roundInt(math.Max(float64(px)-fair, s.minEdge)*float64(s.multiplier)) + position
			if qty > 0 {
				orders = append(orders, sell(s.symbol, px, qty))
				ctx.Log.Debug().Str("product", s.symbol).Float64("fair", fair).Msgf("SELL %dx %d", qty, px)
			}
		}
	}
	ctx.Memory.Push(s.symbol, q.Mid, s.window+1)
	return orders
}
