package event

import (
	"time"
)

// Context identifies what changed and when, in virtual time.
type Context struct {
	Kind       string        `json:"kind"`
	EntityID   string        `json:"entityID"`
	OrderID    string        `json:"orderID,omitempty"`
	Transition string        `json:"transition"`
	ActorID    string        `json:"actorID,omitempty"`
	At         time.Duration `json:"at"`
}

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:  context,
		Metadata: make(map[string]interface{}),
		Data:     data,
	}
}
