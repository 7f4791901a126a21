// Package datamodel mirrors the payloads exchanged between the Prosperity simulator and a trader.
package datamodel

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Symbol identifies a tradable listing.
type Symbol = string

// Product identifies the underlying good a position is held in.
type Product = string

// Submission is the buyer/seller identity the simulator assigns to our own orders.
const Submission = "SUBMISSION"

// Listing ties a symbol to its product and the currency it is priced in.
type Listing struct {
	Symbol       Symbol  `json:"symbol"`
	Product      Product `json:"product"`
	Denomination Product `json:"denomination"`
}

// ConversionObservation carries the inputs for converting a product on another island.
type ConversionObservation struct {
	BidPrice      float64 `json:"bidPrice"`
	AskPrice      float64 `json:"askPrice"`
	TransportFees float64 `json:"transportFees"`
	ExportTariff  float64 `json:"exportTariff"`
	ImportTariff  float64 `json:"importTariff"`
	SugarPrice    float64 `json:"sugarPrice"`
	SunlightIndex float64 `json:"sunlightIndex"`
}

// Observation bundles plain value and conversion observations per product.
type Observation struct {
	PlainValueObservations map[Product]float64               `json:"plainValueObservations"`
	ConversionObservations map[Product]ConversionObservation `json:"conversionObservations"`
}

// Order is a limit order; positive quantity buys, negative quantity sells.
type Order struct {
	Symbol   Symbol `json:"symbol"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
}

func (o Order) String() string {
	return fmt.Sprintf("(%s, %d, %d)", o.Symbol, o.Price, o.Quantity)
}

// Trade is an executed trade seen either in the market or against our own orders.
type Trade struct {
	Symbol    Symbol `json:"symbol"`
	Price     int    `json:"price"`
	Quantity  int    `json:"quantity"`
	Buyer     string `json:"buyer"`
	Seller    string `json:"seller"`
	Timestamp int    `json:"timestamp"`
}

func (t Trade) String() string {
	return fmt.Sprintf("(%s, %s << %s, %d, %d, %d)", t.Symbol, t.Buyer, t.Seller, t.Price, t.Quantity, t.Timestamp)
}

// IsOwnBuy reports whether we were the buyer.
func (t Trade) IsOwnBuy() bool { return t.Buyer == Submission }

// IsOwnSell reports whether we were the seller.
func (t Trade) IsOwnSell() bool { return t.Seller == Submission }

// SignedQuantity returns the quantity from our point of view: positive after a buy, negative after a sell.
func (t Trade) SignedQuantity() int {
	if t.IsOwnSell() && !t.IsOwnBuy() {
		return -t.Quantity
	}
	return t.Quantity
}

// Level is a single price level of an order depth.
type Level struct {
	Price  int
	Volume int
}

// OrderDepth holds resting market orders; sell volumes are negative.
type OrderDepth struct {
	BuyOrders  map[int]int `json:"buy_orders"`
	SellOrders map[int]int `json:"sell_orders"`
}

// NewOrderDepth returns an empty depth with both sides allocated.
func NewOrderDepth() *OrderDepth {
	return &OrderDepth{BuyOrders: make(map[int]int), SellOrders: make(map[int]int)}
}

// BestBid returns the highest bid price and its volume.
func (d *OrderDepth) BestBid() (int, int, bool) {
	if d == nil || len(d.BuyOrders) == 0 {
		return 0, 0, false
	}
	first := true
	var best int
	for px := range d.BuyOrders {
		if first || px > best {
			best = px
			first = false
		}
	}
	return best, d.BuyOrders[best], true
}

// BestAsk returns the lowest ask price and its (negative) volume.
func (d *OrderDepth) BestAsk() (int, int, bool) {
	if d == nil || len(d.SellOrders) == 0 {
		return 0, 0, false
	}
	first := true
	var best int
	for px := range d.SellOrders {
		if first || px < best {
			best = px
			first = false
		}
	}
	return best, d.SellOrders[best], true
}

// MidPrice averages the best bid and best ask.
func (d *OrderDepth) MidPrice() (float64, bool) {
	bid, _, okBid := d.BestBid()
	ask, _, okAsk := d.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return float64(bid+ask) / 2, true
}

// Bids returns buy levels sorted from best (highest) to worst.
func (d *OrderDepth) Bids() []Level {
	if d == nil {
		return nil
	}
	out := make([]Level, 0, len(d.BuyOrders))
	for px, vol := range d.BuyOrders {
		out = append(out, Level{Price: px, Volume: vol})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	return out
}

// Asks returns sell levels sorted from best (lowest) to worst.
func (d *OrderDepth) Asks() []Level {
	if d == nil {
		return nil
	}
	out := make([]Level, 0, len(d.SellOrders))
	for px, vol := range d.SellOrders {
		out = append(out, Level{Price: px, Volume: vol})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

// Clone deep-copies the depth so matching can consume levels without touching the source.
func (d *OrderDepth) Clone() *OrderDepth {
	out := NewOrderDepth()
	if d == nil {
		return out
	}
	for px, vol := range d.BuyOrders {
		out.BuyOrders[px] = vol
	}
	for px, vol := range d.SellOrders {
		out.SellOrders[px] = vol
	}
	return out
}

// TradingState is everything a trader sees on a single timestep.
type TradingState struct {
	TraderData   string                 `json:"traderData"`
	Timestamp    int                    `json:"timestamp"`
	Listings     map[Symbol]Listing     `json:"listings"`
	OrderDepths  map[Symbol]*OrderDepth `json:"order_depths"`
	OwnTrades    map[Symbol][]Trade     `json:"own_trades"`
	MarketTrades map[Symbol][]Trade     `json:"market_trades"`
	Position     map[Product]int        `json:"position"`
	Observations Observation            `json:"observations"`
}

// PositionOf returns the current position in product, zero when flat or unknown.
func (s *TradingState) PositionOf(product Product) int {
	if s == nil || s.Position == nil {
		return 0
	}
	return s.Position[product]
}

// Products lists the symbols with an order depth, sorted for deterministic iteration.
func (s *TradingState) Products() []Symbol {
	out := make([]Symbol, 0, len(s.OrderDepths))
	for sym := range s.OrderDepths {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// LastOwnTrade returns the most recent own trade in symbol.
func (s *TradingState) LastOwnTrade(symbol Symbol) (Trade, bool) {
	trades := s.OwnTrades[symbol]
	if len(trades) == 0 {
		return Trade{}, false
	}
	return trades[len(trades)-1], true
}

// ToJSON encodes the state; map keys come out sorted.
func (s *TradingState) ToJSON() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode trading state: %w", err)
	}
	return string(data), nil
}
