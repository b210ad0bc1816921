package labflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/afs"
	"github.com/viant/labflow/internal/idgen"
	"github.com/viant/labflow/internal/logging"
	"github.com/viant/labflow/metrics"
	"github.com/viant/labflow/model"
	"github.com/viant/labflow/policy"
	"github.com/viant/labflow/progress"
	"github.com/viant/labflow/runtime/scheduler"
	"github.com/viant/labflow/service/actor"
	"github.com/viant/labflow/service/catalog"
	"github.com/viant/labflow/service/dao"
	"github.com/viant/labflow/service/dao/snapshot"
	sfs "github.com/viant/labflow/service/dao/snapshot/fs"
	"github.com/viant/labflow/service/dao/snapshot/sqlite"
	"github.com/viant/labflow/service/dao/store"
	"github.com/viant/labflow/service/event"
	"github.com/viant/labflow/service/workflow"
	"github.com/viant/labflow/tracing"
	"go.uber.org/zap"
)

// Version is reported as the tracing service version.
const Version = "0.1.0"

// Service is the external surface of the engine. It is safe for concurrent
// use: reads observe the entity model between scheduler steps and at most one
// caller drives the scheduler at a time.
type Service struct {
	config     *Config
	mux        sync.RWMutex
	busy       atomic.Bool
	stalled    atomic.Bool
	sched      *scheduler.Scheduler
	engine     *workflow.Engine
	progress   *progress.Progress
	catalog    *catalog.Service
	actors     *actor.Pool
	policy     *policy.Policy
	logger     *zap.Logger
	registerer prometheus.Registerer
	metrics    *metrics.Metrics
	tracer     *tracing.Tracer
	events     *event.Service
	publisher  *event.Publisher[model.Transition]
	store      snapshot.Store
	closers    []func() error
}

// New creates a service. Reference data is loaded from Config.Catalog and
// Config.Actors when set; built-in defaults are used otherwise.
func New(ctx context.Context, options ...Option) (*Service, error) {
	ret := &Service{}
	for _, option := range options {
		option(ret)
	}
	if err := ret.init(ctx); err != nil {
		_ = ret.Close()
		return nil, err
	}
	return ret, nil
}

func (s *Service) init(ctx context.Context) error {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return err
	}
	var err error
	if s.logger == nil {
		if s.logger, err = logging.New(s.config.Log); err != nil {
			return err
		}
	}
	fs := afs.New()
	if s.catalog == nil {
		if s.catalog = catalog.Default(); s.config.Catalog != "" {
			if s.catalog, err = catalog.Load(ctx, fs, s.config.Catalog); err != nil {
				return err
			}
		}
	}
	if s.actors == nil {
		if s.actors = actor.Default(); s.config.Actors != "" {
			if s.actors, err = actor.Load(ctx, fs, s.config.Actors); err != nil {
				return err
			}
		}
	}
	s.policy = policy.FromConfig(s.config.Policy)
	if s.registerer == nil {
		s.registerer = prometheus.NewRegistry()
	}
	if s.metrics, err = metrics.New(s.registerer); err != nil {
		return err
	}
	if s.tracer == nil && s.config.Tracing.Enabled {
		if s.tracer, err = tracing.NewStdout("labflow", Version, s.config.Tracing.Output); err != nil {
			return err
		}
		s.closers = append(s.closers, func() error { return s.tracer.Shutdown(context.Background()) })
	}
	if s.events, err = event.New(event.VendorMemory, event.WithLogger(s.logger)); err != nil {
		return err
	}
	if s.store == nil {
		if s.store, err = s.newStore(); err != nil {
			return err
		}
	}
	s.progress = progress.New(idgen.New())
	s.sched, s.engine, err = s.newEngine(0, s.config.Seed)
	return err
}

func (s *Service) newStore() (snapshot.Store, error) {
	switch s.config.Store.Kind {
	case StoreFS:
		return sfs.New(s.config.Store.URL), nil
	case StoreSQLite:
		ret, err := sqlite.NewStore(s.config.Store.URL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, ret.Close)
		return ret, nil
	}
	return store.NewMemoryStore[string, snapshot.Snapshot](snapshot.Key), nil
}

// newEngine builds a scheduler resuming at now and an empty engine on it.
func (s *Service) newEngine(now time.Duration, seed uint64) (*scheduler.Scheduler, *workflow.Engine, error) {
	sched := scheduler.New(
		scheduler.WithStepLocker(&s.mux),
		scheduler.WithObserver(s.metrics),
		scheduler.WithProgress(s.progress),
		scheduler.WithRealTimeFactor(s.config.RealTimeFactor),
		scheduler.WithStartTime(now),
	)
	options := []workflow.Option{
		workflow.WithCatalog(s.catalog),
		workflow.WithActors(s.actors),
		workflow.WithPolicy(s.policy),
		workflow.WithLogger(s.logger),
		workflow.WithMetrics(s.metrics),
	}
	if s.tracer != nil {
		options = append(options, workflow.WithTracer(s.tracer))
	}
	if s.publisher != nil {
		options = append(options, workflow.WithPublisher(s.publisher))
	}
	config := s.config.engine()
	config.Seed = seed
	engine, err := workflow.New(sched, *config, options...)
	if err != nil {
		return nil, nil, err
	}
	return sched, engine, nil
}

// RegisterCustomer adds or replaces a customer.
func (s *Service) RegisterCustomer(ctx context.Context, customer *model.Customer) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.engine.RegisterCustomer(ctx, customer)
}

// SubmitOrder creates a pending order with one item per distinct test code
// and schedules its check-in. customerID may be a customer id or an HN.
func (s *Service) SubmitOrder(ctx context.Context, customerID string, testCodes []string) (string, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.engine.Submit(ctx, customerID, testCodes)
}

// RunOnce processes every event due at the earliest pending virtual instant.
func (s *Service) RunOnce(ctx context.Context) error {
	return s.drive(ctx, func(sched *scheduler.Scheduler) error {
		return sched.RunOnce(ctx)
	})
}

// RunUntilIdle processes events until the queue is empty.
func (s *Service) RunUntilIdle(ctx context.Context) error {
	return s.drive(ctx, func(sched *scheduler.Scheduler) error {
		return sched.Run(ctx)
	})
}

// drive runs the scheduler exclusively. A run aborted by its context
// cancels every live process; the next drive respawns the processes of the
// orders and items left waiting.
func (s *Service) drive(ctx context.Context, run func(sched *scheduler.Scheduler) error) error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrSchedulerBusy
	}
	defer s.busy.Store(false)
	if err := s.resume(ctx); err != nil {
		return err
	}
	s.mux.RLock()
	sched := s.sched
	s.mux.RUnlock()
	err := run(sched)
	switch {
	case err == nil:
	case errors.Is(err, ErrPermitLeak), errors.Is(err, ErrDeadlock):
		s.logger.Error("scheduler run failed", zap.Error(err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.stalled.Store(true)
		s.logger.Warn("scheduler run aborted", zap.Error(err))
	default:
		s.logger.Warn("scheduler run stopped", zap.Error(err))
	}
	return err
}

func (s *Service) resume(ctx context.Context) error {
	if !s.stalled.Load() {
		return nil
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if _, err := s.engine.Resume(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("failed to resume aborted run: %w", err)
	}
	s.stalled.Store(false)
	return nil
}

// Report records a result for a finished item.
func (s *Service) Report(ctx context.Context, itemID, actorID, value, comment string) error {
	return s.act(ctx, func(engine *workflow.Engine) *scheduler.Process {
		return engine.Report(ctx, itemID, actorID, value, comment)
	})
}

// Approve approves a reported item.
func (s *Service) Approve(ctx context.Context, itemID, actorID string) error {
	return s.act(ctx, func(engine *workflow.Engine) *scheduler.Process {
		return engine.Approve(ctx, itemID, actorID)
	})
}

// Update re-enters the result of an analysed item, clearing any approval.
func (s *Service) Update(ctx context.Context, itemID, actorID, value, comment string) error {
	return s.act(ctx, func(engine *workflow.Engine) *scheduler.Process {
		return engine.Update(ctx, itemID, actorID, value, comment)
	})
}

// act spawns a human action and drives the scheduler until it terminates.
func (s *Service) act(ctx context.Context, spawn func(engine *workflow.Engine) *scheduler.Process) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.busy.CompareAndSwap(false, true) {
		return ErrSchedulerBusy
	}
	defer s.busy.Store(false)
	if err := s.resume(ctx); err != nil {
		return err
	}
	s.mux.Lock()
	sched := s.sched
	p := spawn(s.engine)
	s.mux.Unlock()
	if err := sched.RunUntil(context.WithoutCancel(ctx), p); err != nil {
		if !p.Done() {
			return err
		}
		s.logger.Error("scheduler run failed", zap.Error(err))
	}
	return p.Err()
}

// RejectOrder rejects a non-terminal order and cancels its open items.
func (s *Service) RejectOrder(ctx context.Context, orderID, actorID, reason, comment string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.engine.RejectOrder(ctx, orderID, actorID, reason, comment)
}

// CancelOrder cancels a non-terminal order and its open items.
func (s *Service) CancelOrder(ctx context.Context, orderID, actorID string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.engine.CancelOrder(ctx, orderID, actorID)
}

// CancelItem cancels one item that is neither approved nor cancelled.
func (s *Service) CancelItem(ctx context.Context, itemID, actorID string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.engine.CancelItem(ctx, itemID, actorID)
}

// Order returns a copy of an order with its items.
func (s *Service) Order(_ context.Context, id string) (*model.OrderSnapshot, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.engine.OrderSnapshot(id)
}

// Item returns a copy of an item.
func (s *Service) Item(_ context.Context, id string) (*model.ItemSnapshot, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.engine.ItemSnapshot(id)
}

// ItemHistory returns the versions of an item, oldest first.
func (s *Service) ItemHistory(_ context.Context, id string) ([]*model.Version, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.engine.History(id)
}

// DiffVersions renders a unified diff between two versions of an item.
func (s *Service) DiffVersions(_ context.Context, itemID string, from, to int) (string, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.engine.Diff(itemID, from, to)
}

// Orders lists orders in submission order; dao.WithState(...)
// filters by state.
func (s *Service) Orders(ctx context.Context, parameters ...*dao.Parameter) ([]*model.OrderSnapshot, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.engine.Orders(ctx, parameters...)
}

// Items lists items in submission order; dao.WithState(...)
// filters by state.
func (s *Service) Items(ctx context.Context, parameters ...*dao.Parameter) ([]*model.ItemSnapshot, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.engine.Items(ctx, parameters...)
}

// Transitions returns the journal entries with a sequence number greater
// than after.
func (s *Service) Transitions(after int) []*model.Transition {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.engine.Transitions(after)
}

// Catalog returns the test catalog.
func (s *Service) Catalog() *catalog.Service { return s.catalog }

// Actors returns the actor pool.
func (s *Service) Actors() *actor.Pool { return s.actors }

// Resources returns the resource bookkeeping counters.
func (s *Service) Resources() []scheduler.Stats {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.engine.Broker().Stats()
}

// Progress returns a copy of the process counters.
func (s *Service) Progress() progress.Counters {
	ret := s.progress.Snapshot()
	s.mux.RLock()
	ret.Events = s.sched.Pending()
	s.mux.RUnlock()
	return ret
}

// Now returns the wall-clock instant of the current virtual time.
func (s *Service) Now() time.Time {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.engine.Now()
}

// Subscribe delivers every subsequent transition to handler on a listener
// goroutine until ctx is done or the service is closed. A later call
// replaces the handler. A transition whose handler panics is redelivered and
// ends up in DeadLetters once its retries are exhausted.
func (s *Service) Subscribe(ctx context.Context, handler func(transition *model.Transition)) error {
	publisher, err := event.PublisherOf[model.Transition](s.events)
	if err != nil {
		return err
	}
	err = event.SetListenerOf[model.Transition](ctx, s.events, func(evt *event.Event[model.Transition]) {
		handler(&evt.Data)
	})
	if err != nil {
		return err
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	s.publisher = publisher
	s.engine.SetPublisher(publisher)
	return nil
}

// DeadLetters returns the transitions no subscriber could handle.
func (s *Service) DeadLetters() []*model.Transition {
	s.mux.RLock()
	publisher := s.publisher
	s.mux.RUnlock()
	if publisher == nil {
		return nil
	}
	events := publisher.DeadLetters()
	ret := make([]*model.Transition, 0, len(events))
	for _, evt := range events {
		transition := evt.Data
		ret = append(ret, &transition)
	}
	return ret
}

// Export copies the entity model into a snapshot named after Config.Store.
func (s *Service) Export(ctx context.Context) (*snapshot.Snapshot, error) {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.engine.Export(ctx, s.config.Store.Name)
}

// Import replaces the entity model with snap. The virtual clock resumes at
// the snapshot instant and the processes of orders awaiting reception and
// items awaiting analysis are respawned. Processes of the replaced model are
// cancelled.
func (s *Service) Import(ctx context.Context, snap *snapshot.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	if !s.busy.CompareAndSwap(false, true) {
		return ErrSchedulerBusy
	}
	defer s.busy.Store(false)
	sched, engine, err := s.newEngine(snap.Now, snap.Seed)
	if err != nil {
		return err
	}
	s.mux.Lock()
	if err = engine.Import(ctx, snap); err != nil {
		s.mux.Unlock()
		return err
	}
	previous := s.sched
	s.sched, s.engine = sched, engine
	s.stalled.Store(false)
	s.mux.Unlock()
	if err = previous.Shutdown(); err != nil {
		s.logger.Warn("failed to shut down replaced scheduler", zap.Error(err))
	}
	s.logger.Info("snapshot imported", zap.String("name", snap.Name), zap.Int("orders", len(snap.Orders)), zap.Duration("now", snap.Now))
	return nil
}

// Save exports the entity model to the snapshot store.
func (s *Service) Save(ctx context.Context) error {
	snap, err := s.Export(ctx)
	if err != nil {
		return err
	}
	if err = s.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snap.Name, err)
	}
	return nil
}

// Load imports the named snapshot, Config.Store.Name when name is empty.
func (s *Service) Load(ctx context.Context, name string) error {
	if name == "" {
		name = s.config.Store.Name
	}
	snap, err := s.store.Load(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load snapshot %s: %w", name, err)
	}
	return s.Import(ctx, snap)
}

// Close cancels live processes and releases queues, stores and exporters.
func (s *Service) Close() error {
	var errs []error
	if s.sched != nil {
		if err := s.sched.Shutdown(); err != nil && !errors.Is(err, ErrSchedulerBusy) {
			errs = append(errs, err)
		}
	}
	if s.events != nil {
		s.events.Close()
	}
	for _, closer := range s.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
