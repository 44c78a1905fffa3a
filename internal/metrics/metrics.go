// Package metrics exposes registry activity as Prometheus metrics.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stronghold"

// Recorder records registry events. It satisfies model.Observer.
type Recorder struct {
	registered     prometheus.Gauge
	active         *prometheus.GaugeVec
	reloads        *prometheus.CounterVec
	reloadDuration *prometheus.HistogramVec

	mu      sync.Mutex
	current string
}

// NewRecorder creates a Recorder whose metrics are registered with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		registered: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registered_models",
			Help:      "Number of models in the registry.",
		}),
		active: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_model",
			Help:      "Set to 1 for the active model.",
		}, []string{"model"}),
		reloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_reloads_total",
			Help:      "Model reloads by result.",
		}, []string{"model", "result"}),
		reloadDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_reload_duration_seconds",
			Help:      "Time spent reloading a model.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"model"}),
	}
}

// ModelRegistered counts a newly registered model.
func (r *Recorder) ModelRegistered(string) {
	r.registered.Inc()
}

// ActiveModelChanged moves the active marker to id.
func (r *Recorder) ActiveModelChanged(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != "" {
		r.active.DeleteLabelValues(r.current)
	}
	r.active.WithLabelValues(id).Set(1)
	r.current = id
}

// ModelReloaded records the outcome and duration of a reload.
func (r *Recorder) ModelReloaded(id string, err error, elapsed time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}

	r.reloads.WithLabelValues(id, result).Inc()
	r.reloadDuration.WithLabelValues(id).Observe(elapsed.Seconds())
}
