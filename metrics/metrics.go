// Package metrics exposes prometheus collectors for workflow runs.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/labflow/runtime/scheduler"
)

const namespace = "labflow"

// Metrics records transitions and resource bookkeeping. It implements
// scheduler.Observer.
type Metrics struct {
	Transitions *prometheus.CounterVec
	Rejections  *prometheus.CounterVec
	Grants      *prometheus.CounterVec
	Wait        *prometheus.HistogramVec
	Hold        *prometheus.HistogramVec
	InUse       *prometheus.GaugeVec
	Leaks       *prometheus.CounterVec
}

var _ scheduler.Observer = (*Metrics)(nil)

// New creates the collectors and registers them with registerer when it is
// not nil. Collectors already registered are reused.
func New(registerer prometheus.Registerer) (*Metrics, error) {
	ret := &Metrics{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "State transitions applied, by entity kind and transition.",
		}, []string{"kind", "transition"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_transitions_total",
			Help:      "Transitions refused, by action and reason.",
		}, []string{"action", "reason"}),
		Grants: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resource_grants_total",
			Help:      "Permits granted, by resource.",
		}, []string{"resource"}),
		Wait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resource_wait_virtual_seconds",
			Help:      "Virtual time spent queued before a grant.",
			Buckets:   []float64{0, 60, 300, 900, 1800, 3600, 7200},
		}, []string{"resource"}),
		Hold: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resource_hold_virtual_seconds",
			Help:      "Virtual time a permit was held.",
			Buckets:   []float64{0, 60, 300, 900, 1800, 3600, 7200},
		}, []string{"resource"}),
		InUse: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resource_in_use",
			Help:      "Permits currently held, by resource.",
		}, []string{"resource"}),
		Leaks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "permit_leaks_total",
			Help:      "Permits still held by a process at termination.",
		}, []string{"resource"}),
	}
	if registerer == nil {
		return ret, nil
	}
	var err error
	if ret.Transitions, err = register(registerer, ret.Transitions); err != nil {
		return nil, err
	}
	if ret.Rejections, err = register(registerer, ret.Rejections); err != nil {
		return nil, err
	}
	if ret.Grants, err = register(registerer, ret.Grants); err != nil {
		return nil, err
	}
	if ret.Wait, err = register(registerer, ret.Wait); err != nil {
		return nil, err
	}
	if ret.Hold, err = register(registerer, ret.Hold); err != nil {
		return nil, err
	}
	if ret.InUse, err = register(registerer, ret.InUse); err != nil {
		return nil, err
	}
	if ret.Leaks, err = register(registerer, ret.Leaks); err != nil {
		return nil, err
	}
	return ret, nil
}

func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) (T, error) {
	if err := registerer.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return collector, err
	}
	return collector, nil
}

// OnGrant implements scheduler.Observer.
func (m *Metrics) OnGrant(resource string, wait time.Duration, inUse int) {
	m.Grants.WithLabelValues(resource).Inc()
	m.Wait.WithLabelValues(resource).Observe(wait.Seconds())
	m.InUse.WithLabelValues(resource).Set(float64(inUse))
}

// OnRelease implements scheduler.Observer.
func (m *Metrics) OnRelease(resource string, held time.Duration, inUse int) {
	m.Hold.WithLabelValues(resource).Observe(held.Seconds())
	m.InUse.WithLabelValues(resource).Set(float64(inUse))
}

// OnLeak implements scheduler.Observer.
func (m *Metrics) OnLeak(process string, resource string) {
	m.Leaks.WithLabelValues(resource).Inc()
}

// Transition counts an applied transition.
func (m *Metrics) Transition(kind, transition string) {
	m.Transitions.WithLabelValues(kind, transition).Inc()
}

// Rejected counts a refused transition.
func (m *Metrics) Rejected(action, reason string) {
	m.Rejections.WithLabelValues(action, reason).Inc()
}
