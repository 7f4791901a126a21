package strategy

import (
	"math"
	"testing"

	"prosperity-go/internal/datamodel"
	"prosperity-go/internal/traderdata"
)

func linear(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func TestTrendUnwinderGradient(t *testing.T) {
	strat := NewTrendUnwinder(SquidInk, Params{})
	if g := strat.Gradient(linear(1000, 1, 20)); g != 0 {
		t.Fatalf("expected zero gradient on short history, got %f", g)
	}
	if g := strat.Gradient(linear(1000, 1, 40)); math.Abs(g-1) > 1e-6 {
		t.Fatalf("expected unit gradient, got %f", g)
	}
	if s := strat.Strength(1); math.Abs(s-3.3) > 1e-9 {
		t.Fatalf("unexpected strength %f", s)
	}
}

func TestTrendUnwinderFollowsTrend(t *testing.T) {
	strat := NewTrendUnwinder(SquidInk, Params{})
	cases := []struct {
		name  string
		step  float64
		order datamodel.Order
	}{
		{"rising", 1, datamodel.Order{Symbol: SquidInk, Price: 1043, Quantity: 8}},
		{"falling", -1, datamodel.Order{Symbol: SquidInk, Price: 1039, Quantity: -8}},
	}
	for _, tc := range cases {
		mem := traderdata.New()
		seed(mem, SquidInk, linear(1000, tc.step, 40)...)
		state := stateWith(800, map[string]*datamodel.OrderDepth{SquidInk: book(1040, 10, 1042, 10)}, nil)

		orders := strat.Decide(ctxFor(state, mem))
		if len(orders) != 1 || orders[0] != tc.order {
			t.Fatalf("%s: unexpected orders %v", tc.name, orders)
		}
	}
}

func TestTrendUnwinderWeakTrendRespectsPosition(t *testing.T) {
	strat := NewTrendUnwinder(SquidInk, Params{})
	mem := traderdata.New()
	// slope 0.1 -> strength 0.33, a weak trend
	seed(mem, SquidInk, linear(1000, 0.1, 40)...)
	state := stateWith(800, map[string]*datamodel.OrderDepth{SquidInk: book(1040, 10, 1042, 10)}, nil)
	orders := strat.Decide(ctxFor(state, mem))
	if len(orders) != 1 || orders[0].Quantity != 2 {
		t.Fatalf("expected weak buy, got %v", orders)
	}

	mem = traderdata.New()
	seed(mem, SquidInk, linear(1000, 0.1, 40)...)
	state.Position[SquidInk] = 41
	if orders := strat.Decide(ctxFor(state, mem)); len(orders) != 0 {
		t.Fatalf("expected no trade past the weak position cap, got %v", orders)
	}

	// falling weak trend sells weakQty at bid-1
	mem = traderdata.New()
	seed(mem, SquidInk, linear(1000, -0.1, 40)...)
	state.Position[SquidInk] = 0
	orders = strat.Decide(ctxFor(state, mem))
	if len(orders) != 1 || orders[0] != (datamodel.Order{Symbol: SquidInk, Price: 1039, Quantity: -2}) {
		t.Fatalf("expected weak sell of 2 at 1039, got %v", orders)
	}
}

func TestTrendUnwinderRemembersAndUnwinds(t *testing.T) {
	strat := NewTrendUnwinder(SquidInk, Params{})
	mem := traderdata.New()
	seed(mem, SquidInk, repeat(1000, 40)...)

	state := stateWith(900, map[string]*datamodel.OrderDepth{SquidInk: book(1000, 10, 1002, 10)}, map[string]int{SquidInk: 8})
	state.OwnTrades[SquidInk] = []datamodel.Trade{{Symbol: SquidInk, Price: 1000, Quantity: 8, Buyer: datamodel.Submission, Timestamp: 800}}
	if orders := strat.Decide(ctxFor(state, mem)); len(orders) != 0 {
		t.Fatalf("expected no orders while remembering, got %v", orders)
	}
	pending, ok := mem.Pending(SquidInk)
	if !ok || pending.Remaining != 8 || pending.Price != 1000 {
		t.Fatalf("unexpected pending record %+v", pending)
	}

	unwind := stateWith(3300, map[string]*datamodel.OrderDepth{SquidInk: book(1009, 10, 1011, 10)}, map[string]int{SquidInk: 8})
	orders := strat.Decide(ctxFor(unwind, mem))
	if len(orders) != 1 || orders[0] != (datamodel.Order{Symbol: SquidInk, Price: 1011, Quantity: -8}) {
		t.Fatalf("expected full unwind at the ask, got %v", orders)
	}
	if _, ok := mem.Pending(SquidInk); ok {
		t.Fatalf("expected pending record to be cleared")
	}
}

func TestTrendUnwinderHalvesLosingUnwind(t *testing.T) {
	strat := NewTrendUnwinder(SquidInk, Params{})
	cases := []struct {
		name    string
		pending traderdata.Pending
		depth   *datamodel.OrderDepth
		order   datamodel.Order
	}{
		{"long under water", traderdata.Pending{Price: 1000, Remaining: 8}, book(989, 10, 991, 10), datamodel.Order{Symbol: SquidInk, Price: 991, Quantity: -4}},
		{"short in profit", traderdata.Pending{Price: 1000, Remaining: -8}, book(989, 10, 991, 10), datamodel.Order{Symbol: SquidInk, Price: 989, Quantity: 8}},
		{"short under water", traderdata.Pending{Price: 1000, Remaining: -8}, book(1009, 10, 1011, 10), datamodel.Order{Symbol: SquidInk, Price: 1009, Quantity: 4}},
	}
	for _, tc := range cases {
		mem := traderdata.New()
		mem.SetPending(SquidInk, tc.pending)
		orders := strat.Decide(ctxFor(stateWith(0, map[string]*datamodel.OrderDepth{SquidInk: tc.depth}, nil), mem))
		if len(orders) != 1 || orders[0] != tc.order {
			t.Fatalf("%s: unexpected orders %v", tc.name, orders)
		}
	}
}

func TestTrendUnwinderRecordsBoundedHistory(t *testing.T) {
	strat := NewTrendUnwinder(SquidInk, Params{})
	mem := traderdata.New()
	seed(mem, SquidInk, repeat(1000, 66)...)
	state := stateWith(100, map[string]*datamodel.OrderDepth{SquidInk: book(1000, 1, 1002, 1)}, nil)

	// two full periods of history plus the newest mid
	strat.Decide(ctxFor(state, mem))
	if got := mem.Len(SquidInk); got != 67 {
		t.Fatalf("expected history to grow to 67, got %d", got)
	}
	strat.Decide(ctxFor(state, mem))
	series := mem.Series(SquidInk)
	if len(series) != 67 || series[len(series)-1] != 1001 {
		t.Fatalf("expected history capped at 67 ending at the mid, got %d", len(series))
	}
}
