// Package messaging defines the queue contract transition events travel on.
package messaging

import (
	"context"
)

// Vendor names a queue implementation.
type Vendor string

// Queue carries payloads of one type from publishers to a consumer.
type Queue[T any] interface {
	// Publish enqueues a copy of t.
	Publish(ctx context.Context, t *T) error

	// Consume blocks until a message is available, the queue is closed or ctx
	// is done.
	Consume(ctx context.Context) (Message[T], error)

	// Close stops accepting messages; queued ones remain consumable.
	Close()
}

// Message is one delivery. Exactly one of Ack or Nack must be called.
type Message[T any] interface {
	ID() string
	T() *T
	Retries() int
	Ack() error
	// Nack returns the message to the queue, or dead-letters it once retries
	// are exhausted.
	Nack(err error) error
}
