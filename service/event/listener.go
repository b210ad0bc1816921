package event

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/viant/labflow/service/messaging"
	"github.com/viant/labflow/service/messaging/memory"
	"go.uber.org/zap"
)

// Listener drains a publisher on its own goroutine and hands each event to
// handler. A message is acked once handler returns; a panicking handler nacks
// it, so the queue retries it and finally dead-letters it.
type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	logger    *zap.Logger
	cancel    context.CancelFunc
	done      chan struct{}
	once      sync.Once
}

func NewListener[T any](publisher *Publisher[T], handler func(*Event[T]), logger *zap.Logger) *Listener[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Stop cancels the consume loop and waits for it to exit.
func (l *Listener[T]) Stop() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
}

func (l *Listener[T]) Start(ctx context.Context) {
	l.once.Do(func() {
		ctx, l.cancel = context.WithCancel(ctx)
		go l.loop(ctx)
	})
}

func (l *Listener[T]) loop(ctx context.Context) {
	defer close(l.done)
	for {
		msg, err := l.publisher.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, memory.ErrClosed) {
				return
			}
			l.logger.Warn("failed to consume event", zap.Error(err))
			continue
		}
		if msg == nil {
			continue
		}
		l.settle(msg)
	}
}

func (l *Listener[T]) settle(msg messaging.Message[Event[T]]) {
	if err := l.handle(msg.T()); err != nil {
		l.logger.Warn("event handler failed", zap.String("message", msg.ID()), zap.Int("retries", msg.Retries()), zap.Error(err))
		if err = msg.Nack(err); err != nil {
			l.logger.Warn("failed to nack event", zap.String("message", msg.ID()), zap.Error(err))
		}
		return
	}
	if err := msg.Ack(); err != nil {
		l.logger.Warn("failed to ack event", zap.String("message", msg.ID()), zap.Error(err))
	}
}

func (l *Listener[T]) handle(event *Event[T]) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	l.handler(event)
	return nil
}

func (l *Listener[T]) wait() {
	if l.cancel == nil {
		return
	}
	<-l.done
}
