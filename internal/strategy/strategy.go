// Package strategy turns a trading state into orders. Traders are stateless between calls; anything
// that must survive to the next tick travels through the traderData string.
package strategy

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"prosperity-go/internal/datamodel"
	"prosperity-go/internal/risk"
	"prosperity-go/internal/traderdata"
)

// Result is what a trader hands back to the exchange each tick.
type Result struct {
	Orders      map[datamodel.Symbol][]datamodel.Order
	Conversions int
	TraderData  string
}

// Trader is invoked once per timestep.
type Trader interface {
	Run(state *datamodel.TradingState) (Result, error)
	Name() string
}

// Context is the per-tick view a product strategy decides on.
type Context struct {
	State  *datamodel.TradingState
	Memory *traderdata.Memory
	Log    zerolog.Logger
}

// Quote is the top of book for a symbol.
type Quote struct {
	Bid, Ask       int
	BidVol, AskVol int
	Mid            float64
}

// Quote returns the top of book; ok is false unless both sides are present.
func (c Context) Quote(symbol datamodel.Symbol) (Quote, bool) {
	depth := c.State.OrderDepths[symbol]
	bid, bidVol, okBid := depth.BestBid()
	ask, askVol, okAsk := depth.BestAsk()
	if !okBid || !okAsk {
		return Quote{}, false
	}
	return Quote{Bid: bid, Ask: ask, BidVol: bidVol, AskVol: askVol, Mid: float64(bid+ask) / 2}, true
}

// Position returns the current position in symbol.
func (c Context) Position(symbol datamodel.Symbol) int {
	return c.State.PositionOf(symbol)
}

// ProductStrategy decides orders for one product or a group of products.
type ProductStrategy interface {
	Name() string
	Products() []datamodel.Symbol
	Decide(ctx Context) []datamodel.Order
}

// Composite dispatches each tick to its product strategies, clamps the merged orders to the
// position limits, and round-trips memory through traderData.
type Composite struct {
	name       string
	strategies []ProductStrategy
	limits     risk.Limits
	log        zerolog.Logger
}

// NewComposite builds a trader from product strategies; they run in the order given.
func NewComposite(name string, limits risk.Limits, log zerolog.Logger, strategies ...ProductStrategy) *Composite {
	return &Composite{name: name, strategies: strategies, limits: limits, log: log}
}

// Name returns the configured identifier for logging.
func (c *Composite) Name() string { return c.name }

// Run decides the orders for one tick.
func (c *Composite) Run(state *datamodel.TradingState) (Result, error) {
	if state == nil {
		return Result{}, fmt.Errorf("nil trading state")
	}
	mem, err := traderdata.Decode(state.TraderData)
	if err != nil {
		return Result{}, err
	}
	ctx := Context{State: state, Memory: mem, Log: c.log.With().Int("ts", state.Timestamp).Logger()}

	orders := make(map[datamodel.Symbol][]datamodel.Order)
	for _, s := range c.strategies {
		if !anyQuoted(state, s.Products()) {
			continue
		}
		for _, o := range s.Decide(ctx) {
			orders[o.Symbol] = append(orders[o.Symbol], o)
		}
	}
	for sym, list := range orders {
		clamped := c.clamp(sym, state.PositionOf(sym), list)
		if len(clamped) == 0 {
			delete(orders, sym)
			continue
		}
		orders[sym] = clamped
	}

	data, err := mem.Encode()
	if err != nil {
		return Result{}, err
	}
	return Result{Orders: orders, Conversions: 0, TraderData: data}, nil
}

// clamp trims order volumes so that the aggregate buys and sells stay inside the position limit.
func (c *Composite) clamp(sym datamodel.Symbol, position int, orders []datamodel.Order) []datamodel.Order {
	buyCap, sellCap := c.limits.Capacity(sym, position)
	out := orders[:0]
	for _, o := range orders {
		switch {
		case o.Quantity > 0:
			q := min(o.Quantity, buyCap)
			buyCap -= q
			o.Quantity = q
		case o.Quantity < 0:
			q := min(-o.Quantity, sellCap)
			sellCap -= q
			o.Quantity = -q
		}
		if o.Quantity != 0 {
			out = append(out, o)
		}
	}
	return out
}

func anyQuoted(state *datamodel.TradingState, symbols []datamodel.Symbol) bool {
	for _, sym := range symbols {
		if _, ok := state.OrderDepths[sym]; ok {
			return true
		}
	}
	return false
}

func buy(symbol datamodel.Symbol, price, qty int) datamodel.Order {
	return datamodel.Order{Symbol: symbol, Price: price, Quantity: qty}
}

func sell(symbol datamodel.Symbol, price, qty int) datamodel.Order {
	return datamodel.Order{Symbol: symbol, Price: price, Quantity: -qty}
}

func roundInt(v float64) int { return int(math.Round(v)) }
