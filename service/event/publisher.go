package event

import (
	"context"
	"sync/atomic"

	"github.com/viant/labflow/internal/clock"
	"github.com/viant/labflow/service/messaging"
)

type Publisher[T any] struct {
	queue    messaging.Queue[Event[T]]
	anyQueue atomic.Pointer[messaging.Queue[Event[any]]]
}

type fanIn interface {
	setFanIn(queue messaging.Queue[Event[any]])
}

func (p *Publisher[T]) setFanIn(queue messaging.Queue[Event[any]]) {
	p.anyQueue.Store(&queue)
}

func NewPublisher[T any](queue messaging.Queue[Event[T]]) *Publisher[T] {
	return &Publisher[T]{
		queue: queue,
	}
}

// Publish stamps CreatedAt when unset and enqueues the event on the typed
// queue and, when wired through Service, on the untyped fan-in queue.
func (p *Publisher[T]) Publish(ctx context.Context, event *Event[T]) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = clock.Now()
	}
	if anyQueue := p.anyQueue.Load(); anyQueue != nil {
		if err := (*anyQueue).Publish(ctx, &Event[any]{
			Context:   event.Context,
			CreatedAt: event.CreatedAt,
			Metadata:  event.Metadata,
			Data:      event.Data,
		}); err != nil {
			return err
		}
	}
	return p.queue.Publish(ctx, event)
}

// Consume returns the next delivery. The caller settles it with Ack once
// handled or Nack to retry it.
func (p *Publisher[T]) Consume(ctx context.Context) (messaging.Message[Event[T]], error) {
	return p.queue.Consume(ctx)
}

// DeadLetters returns the events whose handling failed on every retry, when
// the queue keeps them.
func (p *Publisher[T]) DeadLetters() []*Event[T] {
	if queue, ok := p.queue.(interface{ DeadLetters() []*Event[T] }); ok {
		return queue.DeadLetters()
	}
	return nil
}
