package model

import (
	"fmt"
	"time"
)

// Entity kinds carried by transitions.
const (
	KindOrder = "order"
	KindItem  = "item"
)

// Transition records one state change at a virtual instant.
type Transition struct {
	Seq        int           `json:"seq"`
	Kind       string        `json:"kind"`
	EntityID   string        `json:"entityId"`
	OrderID    string        `json:"orderId"`
	Name       string        `json:"name"`
	ActorID    string        `json:"actorId,omitempty"`
	At         time.Duration `json:"at"`
	OccurredAt time.Time     `json:"occurredAt"`
}

// Key renders the (entity, transition, virtual time) tuple used to compare
// runs.
func (t *Transition) Key() string {
	return fmt.Sprintf("%s/%s/%s@%d", t.Kind, t.EntityID, t.Name, int64(t.At))
}
