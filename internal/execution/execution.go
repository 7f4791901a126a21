// Package execution describes order sides and fills, and logs what a trader submits.
package execution

import (
	"prosperity-go/internal/datamodel"
	"prosperity-go/internal/metrics"

	"github.com/rs/zerolog"
)

// Side enumerates order directions.
type Side string

const (
	// Buy indicates a positive quantity order.
	Buy Side = "BUY"
	// Sell indicates a negative quantity order.
	Sell Side = "SELL"
)

// SideOf derives the side from the signed order quantity.
func SideOf(order datamodel.Order) Side {
	if order.Quantity < 0 {
		return Sell
	}
	return Buy
}

// Fill is a single execution produced by the backtester.
type Fill struct {
	RunID        string `json:"run_id"`
	Day          int    `json:"day"`
	Timestamp    int    `json:"timestamp"`
	Symbol       string `json:"symbol"`
	Side         Side   `json:"side"`
	Price        int    `json:"price"`
	Qty          int    `json:"qty"`
	Counterparty string `json:"counterparty,omitempty"`
}

// Executor logs and counts the orders a trader hands back each tick.
type Executor struct{ log zerolog.Logger }

// NewExecutor wraps a zerolog logger.
func NewExecutor(log zerolog.Logger) *Executor { return &Executor{log: log} }

// Submit records an order. Zero-quantity orders are ignored.
func (executor *Executor) Submit(timestamp int, order datamodel.Order) error {
	if order.Quantity == 0 {
		return nil
	}
	side := SideOf(order)
	qty := order.Quantity
	if qty < 0 {
		qty = -qty
	}
	metrics.OrdersTotal.WithLabelValues(order.Symbol, string(side)).Inc()
	executor.log.Debug().Int("ts", timestamp).Str("sym", order.Symbol).Str("side", string(side)).Int("qty", qty).Int("px", order.Price).Msg("submit order")
	return nil
}
