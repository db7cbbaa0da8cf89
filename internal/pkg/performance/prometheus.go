package performance

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Vodeneev/lottostats/internal/pkg/models"
)

// Collectors exposes refresh results as Prometheus metrics on their own registry.
type Collectors struct {
	Registry *prometheus.Registry

	refreshes     *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	records       *prometheus.GaugeVec
	lastSuccess   *prometheus.GaugeVec
	inFlight      prometheus.Gauge
	statsRequests *prometheus.CounterVec
}

func NewCollectors() *Collectors {
	c := &Collectors{
		Registry: prometheus.NewRegistry(),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lottostats",
				Subsystem: "refresh",
				Name:      "total",
				Help:      "Refresh calls by game and outcome.",
			},
			[]string{"game", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "lottostats",
				Subsystem: "refresh",
				Name:      "duration_seconds",
				Help:      "Duration of refreshes that ran an extraction.",
				Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
			},
			[]string{"game"},
		),
		records: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "lottostats",
				Subsystem: "refresh",
				Name:      "records",
				Help:      "Draw records found by the last refresh of a game.",
			},
			[]string{"game"},
		),
		lastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "lottostats",
				Subsystem: "refresh",
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful refresh of a game.",
			},
			[]string{"game"},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lottostats",
				Subsystem: "http",
				Name:      "inflight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
		),
		statsRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lottostats",
				Subsystem: "stats",
				Name:      "reads_total",
				Help:      "Statistics reads by game and source.",
			},
			[]string{"game", "source"},
		),
	}
	c.Registry.MustRegister(c.refreshes, c.duration, c.records, c.lastSuccess, c.inFlight, c.statsRequests)
	return c
}

// ObserveRefresh records a refresh result. It has the signature of a refresh observer.
func (c *Collectors) ObserveRefresh(res models.RefreshResult) {
	c.refreshes.WithLabelValues(res.Game, res.Outcome.String()).Inc()
	if res.Outcome == models.RefreshSkippedInFlight {
		return
	}
	c.duration.WithLabelValues(res.Game).Observe(res.Duration.Seconds())
	c.records.WithLabelValues(res.Game).Set(float64(res.Records))
	if res.Outcome == models.RefreshUpdated {
		c.lastSuccess.WithLabelValues(res.Game).SetToCurrentTime()
	}
}

// ObserveRead counts a statistics read.
func (c *Collectors) ObserveRead(game string, source models.StatsSource) {
	c.statsRequests.WithLabelValues(game, string(source)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler tracks in-flight HTTP requests.
func (c *Collectors) InstrumentHandler(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerInFlight(c.inFlight, next)
}
