package labflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/labflow/service/actor"
	"github.com/viant/labflow/service/catalog"
	"github.com/viant/labflow/service/dao/snapshot"
	"github.com/viant/labflow/tracing"
	"go.uber.org/zap"
)

// Option customises a Service.
type Option func(s *Service)

// WithConfig sets the configuration; DefaultConfig is used otherwise.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithLogger sets the logger instead of building one from Config.Log.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCatalog sets the test catalog instead of loading Config.Catalog.
func WithCatalog(c *catalog.Service) Option {
	return func(s *Service) {
		s.catalog = c
	}
}

// WithActors sets the actor pool instead of loading Config.Actors.
func WithActors(pool *actor.Pool) Option {
	return func(s *Service) {
		s.actors = pool
	}
}

// WithMetricsRegisterer registers collectors with r instead of a private
// registry.
func WithMetricsRegisterer(r prometheus.Registerer) Option {
	return func(s *Service) {
		s.registerer = r
	}
}

// WithSnapshotStore sets the store used by Save and Load, overriding
// Config.Store.
func WithSnapshotStore(store snapshot.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithTracer sets the span tracer, overriding Config.Tracing.
func WithTracer(tracer *tracing.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}
