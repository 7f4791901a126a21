// Package metrics exposes prometheus counters for backtest runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Count of market snapshots replayed"},
		[]string{"symbol"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders emitted by the trader"},
		[]string{"symbol", "side"},
	)
	FillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "fills_total", Help: "Units filled against the book or market trades"},
		[]string{"symbol", "side"},
	)
	RejectedOrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rejected_orders_total", Help: "Orders cancelled for breaching position limits"},
		[]string{"symbol"},
	)
	PnL = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "pnl", Help: "Marked profit and loss per product"},
		[]string{"product"},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, OrdersTotal, FillsTotal, RejectedOrdersTotal, PnL)
}

// Serve exposes /metrics on addr in the background. An empty addr disables the listener.
func Serve(addr string) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
