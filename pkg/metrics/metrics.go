// Package metrics exposes trust lookup counters for Prometheus scraping.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initOnce sync.Once

	lookups *prometheus.CounterVec
)

// Init registers the collectors. Must be called once at server startup;
// recording is a no-op until then.
func Init() {
	initOnce.Do(func() {
		lookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "revtrust_lookups_total",
			Help: "Total trust lookups by the model tag of the resolution state that answered",
		}, []string{"model"})
		prometheus.MustRegister(lookups)
	})
}

// RecordLookup counts one resolved trust lookup by model tag.
func RecordLookup(model string) {
	if lookups == nil {
		return
	}
	lookups.WithLabelValues(model).Inc()
}

// Handler returns the scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
