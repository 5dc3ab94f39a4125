package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xtding233/pokeslots-stats/internal/gacha"
)

var (
	// Registry holds the service's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	rpcRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pokeslots",
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Total number of RPC requests handled.",
		},
		[]string{"method", "code"},
	)

	rpcDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pokeslots",
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "Duration of RPC requests.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		},
		[]string{"method"},
	)

	rolls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pokeslots",
			Subsystem: "engine",
			Name:      "rolls_total",
			Help:      "Total number of live slot rolls served.",
		},
	)

	tierWins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pokeslots",
			Subsystem: "engine",
			Name:      "tier_wins_total",
			Help:      "Wins per rarity tier.",
		},
		[]string{"tier"},
	)

	simulatedCases = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pokeslots",
			Subsystem: "engine",
			Name:      "simulated_cases_total",
			Help:      "Total number of simulation cases run.",
		},
	)

	simulatedDraws = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pokeslots",
			Subsystem: "engine",
			Name:      "simulated_draws_total",
			Help:      "Total number of draws performed inside simulations.",
		},
	)

	probability = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pokeslots",
			Subsystem: "config",
			Name:      "tier_probability",
			Help:      "Currently loaded win probability per tier.",
		},
		[]string{"tier"},
	)

	reloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pokeslots",
			Subsystem: "config",
			Name:      "reloads_total",
			Help:      "Probability file reload attempts.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		rpcRequests,
		rpcDuration,
		rolls,
		tierWins,
		simulatedCases,
		simulatedDraws,
		probability,
		reloads,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordRPC records one finished RPC with its status code name.
func RecordRPC(method, code string, d time.Duration) {
	rpcRequests.WithLabelValues(method, code).Inc()
	rpcDuration.WithLabelValues(method).Observe(d.Seconds())
}

// RecordOutcome counts one roll and its per-tier wins.
func RecordOutcome(o gacha.Outcome) {
	rolls.Inc()
	for _, w := range o {
		tierWins.WithLabelValues(w.Tier.Key()).Inc()
	}
}

// RecordSimulation counts the cases and total draws of a finished simulation.
func RecordSimulation(cases, draws int) {
	simulatedCases.Add(float64(cases))
	simulatedDraws.Add(float64(draws))
}

// SetProbabilities publishes the active probability set.
func SetProbabilities(ps gacha.ProbabilitySet) {
	for _, t := range gacha.Tiers {
		probability.WithLabelValues(t.Key()).Set(ps[t])
	}
}

// RecordReload counts a reload attempt.
func RecordReload(err error) {
	if err != nil {
		reloads.WithLabelValues("error").Inc()
		return
	}
	reloads.WithLabelValues("ok").Inc()
}
