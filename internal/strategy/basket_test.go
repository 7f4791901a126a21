package strategy

import (
	"testing"

	"prosperity-go/internal/datamodel"
	"prosperity-go/internal/traderdata"
)

func TestComputeSpreads(t *testing.T) {
	s := ComputeSpreads(200, 100, 50, 810, 400)
	if s.SyntheticA != 800 || s.SyntheticB != 400 {
		t.Fatalf("unexpected synthetics %+v", s)
	}
	if s.A != 10 || s.B != 0 || s.Djembe != 10 {
		t.Fatalf("unexpected spreads %+v", s)
	}
}

func basketBooks(mids map[string]int) map[string]*datamodel.OrderDepth {
	out := make(map[string]*datamodel.OrderDepth, len(mids))
	for sym, mid := range mids {
		out[sym] = book(mid-1, 50, mid+1, 50)
	}
	return out
}

func TestBasketArbitrageShortsRichBasket(t *testing.T) {
	strat := NewBasketArbitrage(3, 1.2, 1.2, 5)
	mem := traderdata.New()
	seed(mem, SpreadA, 0, 0)
	seed(mem, SpreadDjembe, 10, 10)
	state := stateWith(0, basketBooks(map[string]int{
		Djembes: 200, Jams: 100, Croissants: 50, PicnicBasket1: 810, PicnicBasket2: 400,
	}), nil)

	orders := strat.Decide(ctxFor(state, mem))
	want := []datamodel.Order{
		{Symbol: PicnicBasket1, Price: 809, Quantity: -5},
		{Symbol: Djembes, Price: 201, Quantity: 5},
		{Symbol: Jams, Price: 101, Quantity: 15},
		{Symbol: Croissants, Price: 51, Quantity: 30},
	}
	if len(orders) != len(want) {
		t.Fatalf("unexpected orders %v", orders)
	}
	for i := range want {
		if orders[i] != want[i] {
			t.Fatalf("order %d: got %v want %v", i, orders[i], want[i])
		}
	}
	if mem.Len(SpreadB) != 1 || mem.Len(SpreadA) != 3 {
		t.Fatalf("expected spread histories to be updated")
	}
}

func TestBasketArbitrageBuysCheapBasket(t *testing.T) {
	strat := NewBasketArbitrage(3, 1.2, 1.2, 5)
	mem := traderdata.New()
	seed(mem, SpreadA, 0, 0)
	seed(mem, SpreadDjembe, -10, -10)
	state := stateWith(0, basketBooks(map[string]int{
		Djembes: 200, Jams: 100, Croissants: 50, PicnicBasket1: 790, PicnicBasket2: 400,
	}), nil)

	orders := strat.Decide(ctxFor(state, mem))
	if len(orders) != 4 || orders[0] != (datamodel.Order{Symbol: PicnicBasket1, Price: 791, Quantity: 5}) {
		t.Fatalf("unexpected orders %v", orders)
	}
	if orders[3] != (datamodel.Order{Symbol: Croissants, Price: 49, Quantity: -30}) {
		t.Fatalf("unexpected croissant leg %v", orders[3])
	}
}

func TestBasketArbitrageTradesDjembeResidual(t *testing.T) {
	strat := NewBasketArbitrage(3, 1.2, 1.2, 5)
	mem := traderdata.New()
	seed(mem, SpreadA, 10, 10)
	seed(mem, SpreadDjembe, 0, 0)
	state := stateWith(0, basketBooks(map[string]int{
		Djembes: 200, Jams: 100, Croissants: 50, PicnicBasket1: 810, PicnicBasket2: 400,
	}), nil)

	orders := strat.Decide(ctxFor(state, mem))
	if len(orders) != 1 || orders[0] != (datamodel.Order{Symbol: Djembes, Price: 199, Quantity: -5}) {
		t.Fatalf("expected a lone djembe sale, got %v", orders)
	}
}

func TestBasketArbitrageNeedsEveryLeg(t *testing.T) {
	strat := NewBasketArbitrage(3, 1.2, 1.2, 5)
	mem := traderdata.New()
	state := stateWith(0, basketBooks(map[string]int{Djembes: 200, Jams: 100}), nil)
	if orders := strat.Decide(ctxFor(state, mem)); len(orders) != 0 {
		t.Fatalf("expected no orders with missing legs, got %v", orders)
	}
	if mem.Len(SpreadA) != 0 {
		t.Fatalf("expected no spread history without every leg")
	}
}
