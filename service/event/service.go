package event

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/viant/labflow/service/messaging"
	"github.com/viant/labflow/service/messaging/memory"
	"go.uber.org/zap"
)

// VendorMemory is the in-process queue vendor.
const VendorMemory messaging.Vendor = "memory"

// Service owns one queue per payload type plus an untyped fan-in queue.
type Service struct {
	publisher         *Publisher[any]
	listener          *Listener[any]
	typedPublishers   map[reflect.Type]any
	typedListener     map[reflect.Type]any
	queues            []func()
	mux               *sync.RWMutex
	queueVendor       messaging.Vendor
	memNewQueueConfig func(name string) memory.Config
	logger            *zap.Logger
}

// SetListener replaces the fan-in listener receiving events of every type.
func (s *Service) SetListener(ctx context.Context, handler func(*Event[any])) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.listener != nil {
		s.listener.Stop()
	}
	s.listener = NewListener[any](s.publisher, handler, s.logger)
	s.listener.Start(ctx)
	for _, publisher := range s.typedPublishers {
		if p, ok := publisher.(fanIn); ok {
			p.setFanIn(s.publisher.queue)
		}
	}
}

func New(queueVendor messaging.Vendor, opts ...Option) (*Service, error) {
	ret := &Service{
		queueVendor:     queueVendor,
		typedPublishers: make(map[reflect.Type]any),
		typedListener:   make(map[reflect.Type]any),
		mux:             &sync.RWMutex{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.logger == nil {
		ret.logger = zap.NewNop()
	}
	switch queueVendor {
	case VendorMemory:
		if ret.memNewQueueConfig == nil {
			ret.memNewQueueConfig = func(string) memory.Config { return memory.DefaultConfig() }
		}
	default:
		return nil, fmt.Errorf("unsupported queue vendor: %s", queueVendor)
	}

	queue, err := QueueOf[Event[any]](ret, "any")
	if err != nil {
		return nil, err
	}
	ret.publisher = NewPublisher[any](queue)
	return ret, nil
}

func QueueOf[T any](s *Service, name string) (messaging.Queue[T], error) {
	switch s.queueVendor {
	case VendorMemory:
		queue := memory.NewQueue[T](s.memNewQueueConfig(name))
		s.mux.Lock()
		s.queues = append(s.queues, queue.Close)
		s.mux.Unlock()
		return queue, nil
	}
	return nil, fmt.Errorf("unsupported queue vendor: %s", s.queueVendor)
}

func keyOf[T any]() reflect.Type {
	rType := reflect.TypeOf((*T)(nil)).Elem()
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	return rType
}

// SetListenerOf replaces the listener for events carrying T.
func SetListenerOf[T any](ctx context.Context, s *Service, handler func(*Event[T])) error {
	key := keyOf[T]()
	s.mux.RLock()
	ret, ok := s.typedListener[key]
	s.mux.RUnlock()
	if ok {
		ret.(*Listener[T]).Stop()
	}
	publisher, err := PublisherOf[T](s)
	if err != nil {
		return err
	}
	listener := NewListener[T](publisher, handler, s.logger)
	s.mux.Lock()
	s.typedListener[key] = listener
	s.mux.Unlock()
	listener.Start(ctx)
	return nil
}

// PublisherOf returns a publisher for the provided type
func PublisherOf[T any](s *Service) (*Publisher[T], error) {
	key := keyOf[T]()
	s.mux.RLock()
	ret, ok := s.typedPublishers[key]
	s.mux.RUnlock()
	if ok {
		return ret.(*Publisher[T]), nil
	}
	queue, err := QueueOf[Event[T]](s, key.String())
	if err != nil {
		return nil, err
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if ret, ok = s.typedPublishers[key]; ok {
		return ret.(*Publisher[T]), nil
	}
	publisher := NewPublisher[T](queue)
	if s.listener != nil {
		publisher.setFanIn(s.publisher.queue)
	}
	s.typedPublishers[key] = publisher
	return publisher, nil
}

// Close closes every queue and stops all listeners after they drain.
func (s *Service) Close() {
	s.mux.Lock()
	closers := s.queues
	s.queues = nil
	listeners := make([]any, 0, len(s.typedListener))
	for _, l := range s.typedListener {
		listeners = append(listeners, l)
	}
	s.mux.Unlock()
	for _, closeFn := range closers {
		closeFn()
	}
	if s.listener != nil {
		listeners = append(listeners, s.listener)
	}
	for _, l := range listeners {
		if w, ok := l.(interface{ wait() }); ok {
			w.wait()
		}
	}
}
