package strategy

import (
	"prosperity-go/internal/datamodel"
	"prosperity-go/internal/stats"
)

// Spread series names kept in trader memory.
const (
	SpreadA      = "spread_A"
	SpreadB      = "spread_B"
	SpreadDjembe = "spread_djembe"
)

// Spreads are the basket-versus-constituents mispricings for one tick.
type Spreads struct {
	SyntheticA float64
	SyntheticB float64
	A          float64
	B          float64
	Djembe     float64
}

// ComputeSpreads prices the two picnic baskets against their constituents:
// basket 1 holds 1 djembe, 3 jams and 6 croissants; basket 2 holds 2 jams and 4 croissants.
func ComputeSpreads(djembe, jams, croissants, basket1, basket2 float64) Spreads {
	synthA := djembe + 3*jams + 6*croissants
	synthB := 2*jams + 4*croissants
	return Spreads{
		SyntheticA: synthA,
		SyntheticB: synthB,
		A:          basket1 - synthA,
		B:          basket2 - synthB,
		Djembe:     basket1 - 1.5*basket2 - djembe,
	}
}

// BasketArbitrage trades picnic basket 1 against its synthetic replica, and djembes against
// the residual of basket 1 less one and a half basket 2, whenever the spread z-score is extreme.
type BasketArbitrage struct {
	window          int
	threshold       float64
	djembeThreshold float64
	volume          int
}

// NewBasketArbitrage builds the strategy scoring spreads over window ticks.
func NewBasketArbitrage(window int, threshold, djembeThreshold float64, volume int) *BasketArbitrage {
	return &BasketArbitrage{window: window, threshold: threshold, djembeThreshold: djembeThreshold, volume: volume}
}

// Name returns the identifier for logging.
func (s *BasketArbitrage) Name() string { return "BasketArbitrage" }

// Products lists every leg.
func (s *BasketArbitrage) Products() []datamodel.Symbol {
	return []datamodel.Symbol{Djembes, Jams, Croissants, PicnicBasket1, PicnicBasket2}
}

// Decide updates the spread histories and trades the legs once per tick.
func (s *BasketArbitrage) Decide(ctx Context) []datamodel.Order {
	quotes := make(map[datamodel.Symbol]Quote, 5)
	for _, sym := range s.Products() {
		q, ok := ctx.Quote(sym)
		if !ok {
			return nil
		}
		quotes[sym] = q
	}
	spreads := ComputeSpreads(quotes[Djembes].Mid, quotes[Jams].Mid, quotes[Croissants].Mid, quotes[PicnicBasket1].Mid, quotes[PicnicBasket2].Mid)
	ctx.Memory.Push(SpreadA, spreads.A, s.window)
	ctx.Memory.Push(SpreadB, spreads.B, s.window)
	ctx.Memory.Push(SpreadDjembe, spreads.Djembe, s.window)

	zA := stats.ZScore(ctx.Memory.Series(SpreadA), s.window)
	zDjembe := stats.ZScore(ctx.Memory.Series(SpreadDjembe), s.window)
	ctx.Log.Debug().Float64("z_a", zA).Float64("z_djembe", zDjembe).Float64("spread_a", spreads.A).Msg("baskets")

	vol := s.volume
	var orders []datamodel.Order
	switch {
	case zA > s.threshold:
		// basket rich: short it, long the replica
		orders = append(orders,
			sell(PicnicBasket1, quotes[PicnicBasket1].Bid, vol),
			buy(Djembes, quotes[Djembes].Ask, vol),
			buy(Jams, quotes[Jams].Ask, 3*vol),
			buy(Croissants, quotes[Croissants].Ask, 6*vol),
		)
	case zA < -s.threshold:
		orders = append(orders,
			buy(PicnicBasket1, quotes[PicnicBasket1].Ask, vol),
			sell(Djembes, quotes[Djembes].Bid, vol),
			sell(Jams, quotes[Jams].Bid, 3*vol),
			sell(Croissants, quotes[Croissants].Bid, 6*vol),
		)
	}

	switch {
	case zDjembe > s.djembeThreshold:
		orders = append(orders, sell(Djembes, quotes[Djembes].Bid, vol))
	case zDjembe < -s.djembeThreshold:
		orders = append(orders, buy(Djembes, quotes[Djembes].Ask, vol))
	}
	return orders
}
