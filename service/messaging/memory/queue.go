package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/viant/labflow/service/messaging"
)

// ErrProcessed is returned when a message is acked or nacked twice.
var ErrProcessed = errors.New("message already processed")

// ErrClosed is returned by Publish and Consume on a closed, drained queue.
var ErrClosed = errors.New("queue closed")

// Config for memory queue implementation
type Config struct {
	// MaxRetries bounds how many times a nacked message is requeued.
	MaxRetries int `json:"maxRetries" yaml:"maxRetries" validate:"gte=0"`
	// DeadLetter keeps messages that exhausted their retries.
	DeadLetter bool `json:"deadLetter" yaml:"deadLetter"`
}

// DefaultConfig returns a standard configuration for memory queue
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		DeadLetter: true,
	}
}

// Message implements messaging.Message for the in-memory queue
type Message[T any] struct {
	id         string
	payload    T
	queue      *Queue[T]
	retryCount int
	mu         sync.Mutex
	processed  bool
}

// ID returns the message id
func (m *Message[T]) ID() string { return m.id }

// Retries returns how many times the message was nacked
func (m *Message[T]) Retries() int { return m.retryCount }

// T returns the message payload
func (m *Message[T]) T() *T {
	return &m.payload
}

// Ack acknowledges the message as processed successfully
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return ErrProcessed
	}
	m.processed = true
	return nil
}

// Nack requeues the message at the head of the queue until MaxRetries is
// exhausted, then moves it to the dead letter list when enabled.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	if m.processed {
		m.mu.Unlock()
		return ErrProcessed
	}
	m.processed = true
	m.retryCount++
	retry := &Message[T]{id: m.id, payload: m.payload, queue: m.queue, retryCount: m.retryCount}
	m.mu.Unlock()

	if retry.retryCount <= m.queue.config.MaxRetries {
		m.queue.push(retry, true)
		return nil
	}
	if m.queue.config.DeadLetter {
		m.queue.mu.Lock()
		m.queue.dlq = append(m.queue.dlq, retry)
		m.queue.mu.Unlock()
	}
	return nil
}

// Queue is an unbounded in-memory messaging.Queue; Publish never blocks.
type Queue[T any] struct {
	config   Config
	mu       sync.Mutex
	messages []*Message[T]
	dlq      []*Message[T]
	notify   chan struct{}
	closed   bool
}

// NewQueue creates a new in-memory queue
func NewQueue[T any](config Config) *Queue[T] {
	return &Queue[T]{
		config: config,
		notify: make(chan struct{}, 1),
	}
}

// Publish adds a copy of t to the tail of the queue
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t == nil {
		return errors.New("nil payload")
	}
	msg := &Message[T]{id: uuid.New().String(), payload: *t, queue: q}
	if !q.push(msg, false) {
		return ErrClosed
	}
	return nil
}

func (q *Queue[T]) push(msg *Message[T], front bool) bool {
	q.mu.Lock()
	if q.closed && !front {
		q.mu.Unlock()
		return false
	}
	if front {
		q.messages = append([]*Message[T]{msg}, q.messages...)
	} else {
		q.messages = append(q.messages, msg)
	}
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// Consume retrieves the head message, blocking until one is available, the
// queue is closed and drained, or ctx is done.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	for {
		q.mu.Lock()
		if len(q.messages) > 0 {
			msg := q.messages[0]
			q.messages[0] = nil
			q.messages = q.messages[1:]
			remaining := len(q.messages)
			q.mu.Unlock()
			if remaining > 0 {
				select {
				case q.notify <- struct{}{}:
				default:
				}
			}
			return msg, nil
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return nil, ErrClosed
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.notify:
		}
	}
}

// Close stops accepting new messages; queued ones can still be consumed.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Size returns the number of queued messages
func (q *Queue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}

// DeadLetters returns payloads that exhausted their retries
func (q *Queue[T]) DeadLetters() []*T {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := make([]*T, 0, len(q.dlq))
	for _, msg := range q.dlq {
		payload := msg.payload
		result = append(result, &payload)
	}
	return result
}
