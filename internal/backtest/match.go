package backtest

import (
	"prosperity-go/internal/datamodel"
)

// marketTrade is a bot trade that can still be traded against this tick.
type marketTrade struct {
	trade     datamodel.Trade
	remaining int
}

func newMarketTrades(trades []datamodel.Trade) []*marketTrade {
	out := make([]*marketTrade, 0, len(trades))
	for _, tr := range trades {
		out = append(out, &marketTrade{trade: tr, remaining: tr.Quantity})
	}
	return out
}

// match executes order against depth and then against the market trades of the tick.
// Book levels fill at the level price and are consumed; market trades fill at the order price
// when they printed at or through it. The returned trades are from the submitter's side.
func match(order datamodel.Order, depth *datamodel.OrderDepth, trades []*marketTrade, ts int) []datamodel.Trade {
	if order.Quantity > 0 {
		return matchBuy(order, depth, trades, ts)
	}
	if order.Quantity < 0 {
		return matchSell(order, depth, trades, ts)
	}
	return nil
}

func matchBuy(order datamodel.Order, depth *datamodel.OrderDepth, trades []*marketTrade, ts int) []datamodel.Trade {
	var fills []datamodel.Trade
	remaining := order.Quantity
	for _, lvl := range depth.Asks() {
		if remaining == 0 || lvl.Price > order.Price {
			break
		}
		qty := min(remaining, -lvl.Volume)
		if qty <= 0 {
			continue
		}
		fills = append(fills, ownTrade(order.Symbol, lvl.Price, qty, datamodel.Submission, "", ts))
		depth.SellOrders[lvl.Price] += qty
		if depth.SellOrders[lvl.Price] == 0 {
			delete(depth.SellOrders, lvl.Price)
		}
		remaining -= qty
	}
	for _, mt := range trades {
		if remaining == 0 {
			break
		}
		if mt.remaining == 0 || mt.trade.Price > order.Price {
			continue
		}
		qty := min(remaining, mt.remaining)
		fills = append(fills, ownTrade(order.Symbol, order.Price, qty, datamodel.Submission, mt.trade.Seller, ts))
		mt.remaining -= qty
		remaining -= qty
	}
	return fills
}

func matchSell(order datamodel.Order, depth *datamodel.OrderDepth, trades []*marketTrade, ts int) []datamodel.Trade {
	var fills []datamodel.Trade
	remaining := -order.Quantity
	for _, lvl := range depth.Bids() {
		if remaining == 0 || lvl.Price < order.Price {
			break
		}
		qty := min(remaining, lvl.Volume)
		if qty <= 0 {
			continue
		}
		fills = append(fills, ownTrade(order.Symbol, lvl.Price, qty, "", datamodel.Submission, ts))
		depth.BuyOrders[lvl.Price] -= qty
		if depth.BuyOrders[lvl.Price] == 0 {
			delete(depth.BuyOrders, lvl.Price)
		}
		remaining -= qty
	}
	for _, mt := range trades {
		if remaining == 0 {
			break
		}
		if mt.remaining == 0 || mt.trade.Price < order.Price {
			continue
		}
		qty := min(remaining, mt.remaining)
		fills = append(fills, ownTrade(order.Symbol, order.Price, qty, mt.trade.Buyer, datamodel.Submission, ts))
		mt.remaining -= qty
		remaining -= qty
	}
	return fills
}

func ownTrade(symbol datamodel.Symbol, price, qty int, buyer, seller string, ts int) datamodel.Trade {
	return datamodel.Trade{Symbol: symbol, Price: price, Quantity: qty, Buyer: buyer, Seller: seller, Timestamp: ts}
}

// leftovers returns the market trades with unconsumed quantity, as traders see them next tick.
func leftovers(trades map[datamodel.Symbol][]*marketTrade) map[datamodel.Symbol][]datamodel.Trade {
	out := make(map[datamodel.Symbol][]datamodel.Trade, len(trades))
	for sym, list := range trades {
		for _, mt := range list {
			if mt.remaining <= 0 {
				continue
			}
			tr := mt.trade
			tr.Quantity = mt.remaining
			out[sym] = append(out[sym], tr)
		}
	}
	return out
}
