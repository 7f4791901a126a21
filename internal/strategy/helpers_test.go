package strategy

import (
	"github.com/rs/zerolog"

	"prosperity-go/internal/datamodel"
	"prosperity-go/internal/traderdata"
)

func book(bid, bidVol, ask, askVol int) *datamodel.OrderDepth {
	depth := datamodel.NewOrderDepth()
	depth.BuyOrders[bid] = bidVol
	depth.SellOrders[ask] = -askVol
	return depth
}

func stateWith(ts int, depths map[string]*datamodel.OrderDepth, position map[string]int) *datamodel.TradingState {
	if position == nil {
		position = map[string]int{}
	}
	return &datamodel.TradingState{
		Timestamp:    ts,
		OrderDepths:  depths,
		Position:     position,
		OwnTrades:    map[string][]datamodel.Trade{},
		MarketTrades: map[string][]datamodel.Trade{},
	}
}

func ctxFor(state *datamodel.TradingState, mem *traderdata.Memory) Context {
	if mem == nil {
		mem = traderdata.New()
	}
	return Context{State: state, Memory: mem, Log: zerolog.Nop()}
}

func seed(mem *traderdata.Memory, name string, values ...float64) {
	for _, v := range values {
		mem.Push(name, v, 0)
	}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
