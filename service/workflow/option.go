package workflow

import (
	"github.com/viant/labflow/metrics"
	"github.com/viant/labflow/model"
	"github.com/viant/labflow/policy"
	"github.com/viant/labflow/service/actor"
	"github.com/viant/labflow/service/catalog"
	"github.com/viant/labflow/service/event"
	"github.com/viant/labflow/tracing"
	"go.uber.org/zap"
)

// Option customises an Engine.
type Option func(e *Engine)

// WithCatalog sets the test catalog.
func WithCatalog(c *catalog.Service) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithActors sets the actor pool sizing the staff resources.
func WithActors(pool *actor.Pool) Option {
	return func(e *Engine) {
		e.actors = pool
	}
}

// WithPolicy sets the role policy.
func WithPolicy(p *policy.Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracer sets the span tracer.
func WithTracer(t *tracing.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithPublisher publishes every applied transition.
func WithPublisher(p *event.Publisher[model.Transition]) Option {
	return func(e *Engine) {
		e.publisher = p
	}
}
