// Package workflow expresses the order and item life cycles as scheduler
// processes: check-in, analysis, report, approval and update, plus the
// synchronous reject and cancel transitions.
//
// Engine is not safe for concurrent use by itself. Callers serialise access
// with the same locker the scheduler holds while stepping processes.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/labflow/internal/idgen"
	"github.com/viant/labflow/metrics"
	"github.com/viant/labflow/model"
	"github.com/viant/labflow/policy"
	"github.com/viant/labflow/runtime/scheduler"
	"github.com/viant/labflow/service/actor"
	"github.com/viant/labflow/service/audit"
	"github.com/viant/labflow/service/broker"
	"github.com/viant/labflow/service/catalog"
	"github.com/viant/labflow/service/dao/store"
	"github.com/viant/labflow/service/event"
	"github.com/viant/labflow/tracing"
	"go.uber.org/zap"
)

// Engine owns the entity model of one run.
type Engine struct {
	config    Config
	sched     *scheduler.Scheduler
	broker    *broker.Broker
	random    *scheduler.Random
	catalog   *catalog.Service
	actors    *actor.Pool
	policy    *policy.Policy
	audit     *audit.Log
	customers *store.MemoryStore[string, model.Customer]
	orders    *store.MemoryStore[string, model.Order]
	items     *store.MemoryStore[string, model.OrderItem]
	journal   []*model.Transition
	orderIDs  *idgen.Sequence
	itemIDs   *idgen.Sequence
	logger    *zap.Logger
	metrics   *metrics.Metrics
	tracer    *tracing.Tracer
	publisher *event.Publisher[model.Transition]
}

// New creates an engine on sched. Resources are registered with sched.
func New(sched *scheduler.Scheduler, config Config, options ...Option) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ret := &Engine{
		config:   config,
		sched:    sched,
		random:   scheduler.NewRandom(config.Seed),
		audit:    audit.New(),
		orderIDs: idgen.NewSequence("O"),
		itemIDs:  idgen.NewSequence("I"),
		customers: store.NewMemoryStore[string, model.Customer](func(c *model.Customer) string {
			return c.ID
		}),
		orders: store.NewMemoryStore[string, model.Order](func(o *model.Order) string {
			return o.ID
		}, store.WithStateSelector[string, model.Order](func(o *model.Order) string {
			return string(o.State())
		})),
		items: store.NewMemoryStore[string, model.OrderItem](func(i *model.OrderItem) string {
			return i.ID
		}, store.WithStateSelector[string, model.OrderItem](func(i *model.OrderItem) string {
			return string(i.State())
		})),
	}
	for _, option := range options {
		option(ret)
	}
	if ret.catalog == nil {
		ret.catalog = catalog.Default()
	}
	if ret.actors == nil {
		ret.actors = actor.Default()
	}
	if ret.policy == nil {
		ret.policy = policy.Default()
	}
	if ret.logger == nil {
		ret.logger = zap.NewNop()
	}
	if ret.config.Epoch.IsZero() {
		ret.config.Epoch = DefaultEpoch
	}
	ret.broker = broker.New(sched, config.Resources, ret.actors)
	return ret, nil
}

// SetPublisher replaces the transition publisher; nil disables publishing.
func (e *Engine) SetPublisher(publisher *event.Publisher[model.Transition]) {
	e.publisher = publisher
}

// Broker returns the resource broker.
func (e *Engine) Broker() *broker.Broker { return e.broker }

// Catalog returns the test catalog.
func (e *Engine) Catalog() *catalog.Service { return e.catalog }

// Actors returns the actor pool.
func (e *Engine) Actors() *actor.Pool { return e.actors }

// Audit returns the version log.
func (e *Engine) Audit() *audit.Log { return e.audit }

// Now returns the wall-clock instant of the current virtual time.
func (e *Engine) Now() time.Time {
	return e.config.Epoch.Add(e.sched.Now())
}

func (e *Engine) record(ctx context.Context, kind, entityID, orderID, name, actorID string) *model.Transition {
	transition := &model.Transition{
		Seq:        len(e.journal) + 1,
		Kind:       kind,
		EntityID:   entityID,
		OrderID:    orderID,
		Name:       name,
		ActorID:    actorID,
		At:         e.sched.Now(),
		OccurredAt: e.Now(),
	}
	e.journal = append(e.journal, transition)
	e.logger.Debug("transition",
		zap.String("kind", kind),
		zap.String("id", entityID),
		zap.String("transition", name),
		zap.String("actor", actorID),
		zap.Duration("at", transition.At))
	if e.metrics != nil {
		e.metrics.Transition(kind, name)
	}
	if e.publisher != nil {
		payload := *transition
		evt := event.NewEvent(&event.Context{
			Kind:       kind,
			EntityID:   entityID,
			OrderID:    orderID,
			Transition: name,
			ActorID:    actorID,
			At:         transition.At,
		}, payload)
		evt.CreatedAt = transition.OccurredAt
		if err := e.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
			e.logger.Warn("failed to publish transition", zap.String("id", entityID), zap.Error(err))
		}
	}
	return transition
}

// refused logs and counts a transition the caller is told about.
func (e *Engine) refused(action, id string, err error) error {
	if err == nil {
		return nil
	}
	e.logger.Info("transition refused", zap.String("action", action), zap.String("id", id), zap.Error(err))
	if e.metrics != nil {
		e.metrics.Rejected(action, Reason(err))
	}
	return err
}

func (e *Engine) startSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, *tracing.Span) {
	if e.tracer == nil {
		return ctx, nil
	}
	return e.tracer.Start(ctx, name, attrs)
}

func (e *Engine) order(id string) (*model.Order, error) {
	order, err := e.orders.Load(context.Background(), id)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", id, err)
	}
	return order, nil
}

func (e *Engine) item(id string) (*model.OrderItem, error) {
	item, err := e.items.Load(context.Background(), id)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", id, err)
	}
	return item, nil
}

// authorize resolves the actor and checks the role required by action.
func (e *Engine) authorize(actorID, action string) (*model.Actor, error) {
	actor, err := e.actors.Lookup(actorID)
	if err != nil {
		return nil, err
	}
	if !e.policy.Authorize(actor, action) {
		role := e.policy.RequiredRole(action)
		if !e.policy.IsAllowed(action) {
			return nil, fmt.Errorf("%w: %s is disabled", model.ErrUnauthorizedTransition, action)
		}
		return nil, fmt.Errorf("%w: actor %s lacks role %s for %s", model.ErrUnauthorizedTransition, actorID, role, action)
	}
	return actor, nil
}
