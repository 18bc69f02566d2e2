// Package metrics exposes Prometheus instrumentation for the live daemon.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Count of price ticks ingested"},
		[]string{"symbol"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Trade signals emitted by the pipeline"},
		[]string{"symbol", "signal"},
	)
	InvalidTicks = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "invalid_ticks_total", Help: "Ticks rejected before entering the datapath"},
	)
	LastPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "last_price", Help: "Last valid price per symbol"},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, SignalsTotal, InvalidTicks, LastPrice)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
