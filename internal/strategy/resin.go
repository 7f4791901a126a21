package strategy

import (
	"math"

	"prosperity-go/internal/datamodel"
)

// FixedFairMaker trades a product that oscillates around a known fair value. It only buys below
// fair when flat or short, and only sells above fair when flat or long, quoting one tick inside
// the touch but never through fair.
type FixedFairMaker struct {
	symbol     datamodel.Symbol
	fair       float64
	minEdge    float64
	multiplier int
	layers     int
}

// NewFixedFairMaker builds a maker quoting layers levels around fair.
func NewFixedFairMaker(symbol datamodel.Symbol, fair, minEdge float64, multiplier, layers int) *FixedFairMaker {
	if layers <= 0 {
		layers = 1
	}
	return &FixedFairMaker{symbol: symbol, fair: fair, minEdge: minEdge, multiplier: multiplier, layers: layers}
}

// Name returns the identifier for logging.
func (s *FixedFairMaker) Name() string { return "FixedFairMaker" }

// Products lists the traded symbol.
func (s *FixedFairMaker) Products() []datamodel.Symbol { return []datamodel.Symbol{s.symbol} }

// Decide quotes against the fixed fair value.
func (s *FixedFairMaker) Decide(ctx Context) []datamodel.Order {
	q, ok := ctx.Quote(s.symbol)
	if !ok {
		return nil
	}
	position := ctx.Position(s.symbol)
	ctx.Log.Debug().Str("product", s.symbol).Float64("mid", q.Mid).Int("position", position).Int("bid", q.Bid).Int("ask", q.Ask).Msg("book")

	var orders []datamodel.Order
	switch {
	case q.Mid < s.fair && position <= 0:
		px := min(int(math.Floor(s.fair)), q.Bid+1)
		base := roundInt(math.Max(s.fair-float64(px), s.minEdge) * float64(s.multiplier))
		for i := 0; i < s.layers; i++ {
			qty := base
			if i == 0 {
				qty -= position
			}
			if qty > 0 {
				orders = append(orders, buy(s.symbol, px-i, qty))
				ctx.Log.Debug().Str("product", s.symbol).Msgf("BUY %dx %d", qty, px-i)
			}
		}
	case q.Mid > s.fair && position >= 0:
		px := max(int(math.Ceil(s.fair)), q.Ask-1)
		base := roundInt(math.Max(float64(px)-s.fair, s.minEdge) * float64(s.multiplier))
		for i := 0; i < s.layers; i++ {
			qty := base
			if i == 0 {
				qty += position
			}
			if qty > 0 {
				orders = append(orders, sell(s.symbol, px+i, qty))
				ctx.Log.Debug().Str("product", s.symbol).Msgf("SELL %dx %d", qty, px+i)
			}
		}
	}
	return orders
}
