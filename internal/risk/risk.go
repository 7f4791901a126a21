// Package risk enforces the per-product position limits of the exchange.
package risk

import "prosperity-go/internal/datamodel"

// Limits maps each product to its absolute position limit. Products without an entry are unlimited.
type Limits struct {
	Position map[datamodel.Product]int
}

// Limit returns the configured limit for product.
func (l Limits) Limit(product datamodel.Product) (int, bool) {
	limit, ok := l.Position[product]
	return limit, ok
}

// Allow applies the exchange rule: if the summed buys could push the position above +limit, or
// the summed sells below -limit, every order for the product is rejected.
func (l Limits) Allow(product datamodel.Product, position int, orders []datamodel.Order) bool {
	limit, ok := l.Limit(product)
	if !ok {
		return true
	}
	buys, sells := 0, 0
	for _, o := range orders {
		if o.Quantity > 0 {
			buys += o.Quantity
		} else {
			sells -= o.Quantity
		}
	}
	return position+buys <= limit && position-sells >= -limit
}

// Capacity returns how much more can be bought and sold before hitting the limit.
func (l Limits) Capacity(product datamodel.Product, position int) (buy, sell int) {
	limit, ok := l.Limit(product)
	if !ok {
		return int(^uint(0) >> 1), int(^uint(0) >> 1)
	}
	buy = limit - position
	sell = limit + position
	if buy < 0 {
		buy = 0
	}
	if sell < 0 {
		sell = 0
	}
	return buy, sell
}
