package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	refreshCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_dash_refresh_total",
			Help: "Locate/fetch sequences started, by trigger and sequence.",
		},
		[]string{"trigger", "sequence"},
	)
	noticeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_dash_notices_total",
			Help: "User notices emitted, by kind.",
		},
		[]string{"kind"},
	)
	phaseGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "weather_dash_phase",
			Help: "1 for the dashboard's current phase, 0 otherwise.",
		},
		[]string{"phase"},
	)
	fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weather_dash_fetch_duration_seconds",
			Help:    "Duration of the fetch sequence, by outcome.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 1.5, 2, 5, 10},
		},
		[]string{"outcome"},
	)
	renderCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_dash_renders_total",
			Help: "Dashboard renders, by format and cache result.",
		},
		[]string{"format", "cache"},
	)
)

func init() {
	prometheus.MustRegister(refreshCounter, noticeCounter, phaseGauge, fetchDuration, renderCounter)
}

func Refresh(trigger string, sequence string) {
	refreshCounter.WithLabelValues(trigger, sequence).Inc()
}

func Notice(kind string) {
	noticeCounter.WithLabelValues(kind).Inc()
}

// Phase marks current as the only active phase among all.
func Phase(current string, all []string) {
	for _, p := range all {
		v := 0.0
		if p == current {
			v = 1
		}
		phaseGauge.WithLabelValues(p).Set(v)
	}
}

func Fetch(d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	fetchDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func Render(format string, cache string) {
	renderCounter.WithLabelValues(format, cache).Inc()
}
