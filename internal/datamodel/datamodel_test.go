package datamodel

import (
	"strings"
	"testing"
)

func sampleDepth() *OrderDepth {
	depth := NewOrderDepth()
	depth.BuyOrders[9996] = 2
	depth.BuyOrders[9995] = 29
	depth.SellOrders[10004] = -2
	depth.SellOrders[10005] = -29
	return depth
}

func TestBestBidAsk(t *testing.T) {
	depth := sampleDepth()
	bid, bidVol, ok := depth.BestBid()
	if !ok || bid != 9996 || bidVol != 2 {
		t.Fatalf("unexpected best bid %d x %d (ok=%v)", bid, bidVol, ok)
	}
	ask, askVol, ok := depth.BestAsk()
	if !ok || ask != 10004 || askVol != -2 {
		t.Fatalf("unexpected best ask %d x %d (ok=%v)", ask, askVol, ok)
	}
	mid, ok := depth.MidPrice()
	if !ok || mid != 10000 {
		t.Fatalf("expected mid 10000, got %.1f", mid)
	}
}

func TestMidPriceOneSided(t *testing.T) {
	depth := NewOrderDepth()
	depth.BuyOrders[100] = 1
	if _, ok := depth.MidPrice(); ok {
		t.Fatalf("expected no mid without asks")
	}
	var nilDepth *OrderDepth
	if _, _, ok := nilDepth.BestBid(); ok {
		t.Fatalf("expected nil depth to have no bid")
	}
}

func TestLevelsSortedBestFirst(t *testing.T) {
	depth := sampleDepth()
	bids := depth.Bids()
	if len(bids) != 2 || bids[0].Price != 9996 || bids[1].Price != 9995 {
		t.Fatalf("unexpected bids %+v", bids)
	}
	asks := depth.Asks()
	if len(asks) != 2 || asks[0].Price != 10004 || asks[1].Price != 10005 {
		t.Fatalf("unexpected asks %+v", asks)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	depth := sampleDepth()
	clone := depth.Clone()
	delete(clone.SellOrders, 10004)
	if _, ok := depth.SellOrders[10004]; !ok {
		t.Fatalf("clone mutated source depth")
	}
}

func TestTradeSignedQuantity(t *testing.T) {
	buy := Trade{Symbol: "KELP", Price: 2000, Quantity: 3, Buyer: Submission, Seller: ""}
	sell := Trade{Symbol: "KELP", Price: 2000, Quantity: 3, Buyer: "", Seller: Submission}
	if buy.SignedQuantity() != 3 {
		t.Fatalf("expected +3 for own buy")
	}
	if sell.SignedQuantity() != -3 {
		t.Fatalf("expected -3 for own sell")
	}
	if got := buy.String(); got != "(KELP, SUBMISSION << , 2000, 3, 0)" {
		t.Fatalf("unexpected trade string %q", got)
	}
}

func TestOrderString(t *testing.T) {
	if got := (Order{Symbol: "SQUID_INK", Price: 1970, Quantity: -5}).String(); got != "(SQUID_INK, 1970, -5)" {
		t.Fatalf("unexpected order string %q", got)
	}
}

func TestTradingStateHelpers(t *testing.T) {
	state := &TradingState{
		OrderDepths: map[Symbol]*OrderDepth{"KELP": sampleDepth(), "JAMS": sampleDepth()},
		Position:    map[Product]int{"KELP": -4},
		OwnTrades: map[Symbol][]Trade{
			"KELP": {{Symbol: "KELP", Price: 1, Quantity: 1}, {Symbol: "KELP", Price: 2, Quantity: 1}},
		},
	}
	if state.PositionOf("KELP") != -4 || state.PositionOf("JAMS") != 0 {
		t.Fatalf("unexpected positions")
	}
	products := state.Products()
	if len(products) != 2 || products[0] != "JAMS" {
		t.Fatalf("expected sorted products, got %v", products)
	}
	last, ok := state.LastOwnTrade("KELP")
	if !ok || last.Price != 2 {
		t.Fatalf("unexpected last own trade %+v", last)
	}
	if _, ok := state.LastOwnTrade("JAMS"); ok {
		t.Fatalf("expected no own trades for JAMS")
	}

	encoded, err := state.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON error: %v", err)
	}
	if !strings.Contains(encoded, `"order_depths"`) || !strings.Contains(encoded, `"9996":2`) {
		t.Fatalf("unexpected json %s", encoded)
	}
}
