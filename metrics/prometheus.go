package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics to track
var (
	GuildCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "guild_registry_size",
			Help: "Number of guilds currently mirrored in the registry",
		},
	)
	EventCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_events_total",
			Help: "Total number of gateway events applied, by event type",
		},
		[]string{"event"},
	)
	MemberLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "member_lookups_total",
			Help: "Member cache lookups by outcome (hit, miss, fetched, absent)",
		},
		[]string{"outcome"},
	)
	RemoteCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "remote_api_calls_total",
			Help: "Outbound remote API calls by operation and status",
		},
		[]string{"operation", "status"},
	)
)

// Init registers all metrics with the default registry.
func Init() {
	prometheus.MustRegister(GuildCount, EventCount, MemberLookups, RemoteCalls)
}

// Serve starts an HTTP server exposing /metrics on the given address.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			panic(err)
		}
	}()
}
