package strategy

import (
	"prosperity-go/internal/datamodel"
	"prosperity-go/internal/stats"
	"prosperity-go/internal/traderdata"
)

// TrendUnwinder works in fixed periods. A few ticks into each period it measures the gradient
// of the rolling mean and trades with the trend; one tick later it remembers the resulting fill;
// at the start of the next period it unwinds that fill, fully when the price moved in its favour
// and by half otherwise.
type TrendUnwinder struct {
	symbol          datamodel.Symbol
	periodTicks     int
	evalLength      int
	rollingPeriod   int
	tickSize        int
	maxMove         float64
	weakThreshold   float64
	strongThreshold float64
	weakQty         int
	strongQty       int
	weakPosition    int
	strongPosition  int
}

// NewTrendUnwinder builds the strategy from params; unset params take defaults.
func NewTrendUnwinder(symbol datamodel.Symbol, params Params) *TrendUnwinder {
	p := params.WithDefaults()
	return &TrendUnwinder{
		symbol:          symbol,
		periodTicks:     p.TrendPeriodTicks,
		evalLength:      p.TrendEvalLength,
		rollingPeriod:   p.TrendRollingPeriod,
		tickSize:        p.TrendTickSize,
		maxMove:         p.TrendMaxMove,
		weakThreshold:   p.TrendWeakThreshold,
		strongThreshold: p.TrendStrongThreshold,
		weakQty:         p.TrendWeakQty,
		strongQty:       p.TrendStrongQty,
		weakPosition:    p.TrendWeakPosition,
		strongPosition:  p.TrendStrongPosition,
	}
}

// Name returns the identifier for logging.
func (s *TrendUnwinder) Name() string { return "TrendUnwinder" }

// Products lists the traded symbol.
func (s *TrendUnwinder) Products() []datamodel.Symbol { return []datamodel.Symbol{s.symbol} }

// Gradient is the slope of the last evalLength rolling means, 0 until enough history exists.
func (s *TrendUnwinder) Gradient(history []float64) float64 {
	if len(history) < s.rollingPeriod+s.evalLength {
		return 0
	}
	means := stats.RollingMean(history, s.rollingPeriod)
	return stats.Slope(means[len(means)-s.evalLength:])
}

// Strength scales a gradient by the largest per-tick drift expected within a period.
func (s *TrendUnwinder) Strength(gradient float64) float64 {
	presumedMax := s.maxMove / float64(s.periodTicks) / 2
	return gradient / presumedMax
}

// Decide runs the phase of the period the current timestamp falls in, then records the mid.
func (s *TrendUnwinder) Decide(ctx Context) []datamodel.Order {
	q, ok := ctx.Quote(s.symbol)
	if !ok {
		return nil
	}
	position := ctx.Position(s.symbol)
	history := ctx.Memory.Series(s.symbol)
	period := s.periodTicks * s.tickSize
	phase := ctx.State.Timestamp % period

	var orders []datamodel.Order
	warm := len(history) > s.periodTicks
	switch {
	case warm && phase == s.evalLength*s.tickSize:
		orders = s.followTrend(ctx, q, position, history)
	case warm && phase == (s.evalLength+1)*s.tickSize:
		s.rememberFill(ctx)
	case phase == 0:
		orders = s.unwind(ctx, q)
	}

	ctx.Memory.Push(s.symbol, q.Mid, 2*s.periodTicks+1)
	return orders
}

func (s *TrendUnwinder) followTrend(ctx Context, q Quote, position int, history []float64) []datamodel.Order {
	gradient := s.Gradient(history)
	strength := s.Strength(gradient)
	ctx.Log.Debug().Str("product", s.symbol).Float64("gradient", gradient).Float64("strength", strength).Msg("trend")

	// sells mirror buys: they cross to bid-1 and size weak signals at weakQty
	switch {
	case strength >= s.strongThreshold && position <= s.strongPosition:
		return []datamodel.Order{buy(s.symbol, q.Ask+1, s.strongQty)}
	case strength >= s.weakThreshold && position <= s.weakPosition:
		return []datamodel.Order{buy(s.symbol, q.Ask+1, s.weakQty)}
	case strength <= -s.strongThreshold && position >= -s.strongPosition:
		return []datamodel.Order{sell(s.symbol, q.Bid-1, s.strongQty)}
	case strength <= -s.weakThreshold && position >= -s.weakPosition:
		return []datamodel.Order{sell(s.symbol, q.Bid-1, s.weakQty)}
	}
	return nil
}

func (s *TrendUnwinder) rememberFill(ctx Context) {
	last, ok := ctx.State.LastOwnTrade(s.symbol)
	if !ok {
		ctx.Memory.ClearPending(s.symbol)
		return
	}
	ctx.Memory.SetPending(s.symbol, traderdata.Pending{
		Price:     last.Price,
		Remaining: last.SignedQuantity(),
		Timestamp: last.Timestamp,
	})
}

func (s *TrendUnwinder) unwind(ctx Context, q Quote) []datamodel.Order {
	pending, ok := ctx.Memory.Pending(s.symbol)
	if !ok {
		return nil
	}
	ctx.Memory.ClearPending(s.symbol)

	ctx.Log.Debug().Str("product", s.symbol).Int("remaining", pending.Remaining).Int("price", pending.Price).Msg("unwind")
	switch {
	case pending.Remaining > 0:
		qty := pending.Remaining
		if q.Mid < float64(pending.Price) {
			qty /= 2
		}
		if qty > 0 {
			return []datamodel.Order{sell(s.symbol, q.Ask, qty)}
		}
	case pending.Remaining < 0:
		qty := -pending.Remaining
		if q.Mid > float64(pending.Price) {
			qty /= 2
		}
		if qty > 0 {
			return []datamodel.Order{buy(s.symbol, q.Bid, qty)}
		}
	}
	return nil
}
