package model

import (
	"fmt"
	"time"
)

// OrderState is derived from the order timestamps.
type OrderState string

const (
	OrderStatePending   OrderState = "pending"
	OrderStateReceived  OrderState = "received"
	OrderStateApproved  OrderState = "approved"
	OrderStateRejected  OrderState = "rejected"
	OrderStateCancelled OrderState = "cancelled"
)

// IsTerminal reports whether no further order transition is possible.
func (s OrderState) IsTerminal() bool {
	switch s {
	case OrderStateApproved, OrderStateRejected, OrderStateCancelled:
		return true
	}
	return false
}

// Order is one lab requisition. Items are referenced by id in insertion order.
type Order struct {
	ID          string     `json:"id"`
	CustomerID  string     `json:"customerId"`
	OrderedAt   time.Time  `json:"orderedAt"`
	ItemIDs     []string   `json:"itemIds"`
	ReceivedAt  *time.Time `json:"receivedAt,omitempty"`
	RejectedAt  *time.Time `json:"rejectedAt,omitempty"`
	RejectorID  string     `json:"rejectorId,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	Comment     string     `json:"comment,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
	CancellerID string     `json:"cancellerId,omitempty"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	ApproverID  string     `json:"approverId,omitempty"`
}

// State returns the lifecycle state.
func (o *Order) State() OrderState {
	switch {
	case o.RejectedAt != nil:
		return OrderStateRejected
	case o.CancelledAt != nil:
		return OrderStateCancelled
	case o.ApprovedAt != nil:
		return OrderStateApproved
	case o.ReceivedAt != nil:
		return OrderStateReceived
	}
	return OrderStatePending
}

// IsClosed reports whether the order was rejected or cancelled.
func (o *Order) IsClosed() bool {
	return o.RejectedAt != nil || o.CancelledAt != nil
}

// Receive stamps the reception of the specimen.
func (o *Order) Receive(at time.Time) error {
	if state := o.State(); state != OrderStatePending {
		return o.invalid("receive", state)
	}
	o.ReceivedAt = timePtr(at)
	return nil
}

// Reject closes a non-terminal order with a reason.
func (o *Order) Reject(at time.Time, actorID, reason, comment string) error {
	if state := o.State(); state.IsTerminal() {
		return o.invalid("reject", state)
	}
	o.RejectedAt = timePtr(at)
	o.RejectorID = actorID
	o.Reason = reason
	o.Comment = comment
	return nil
}

// Cancel closes a non-terminal order.
func (o *Order) Cancel(at time.Time, actorID string) error {
	if state := o.State(); state.IsTerminal() {
		return o.invalid("cancel", state)
	}
	o.CancelledAt = timePtr(at)
	o.CancellerID = actorID
	return nil
}

// Approve stamps the order approval; the order must be received and open.
func (o *Order) Approve(at time.Time, actorID string) error {
	if state := o.State(); state != OrderStateReceived {
		return o.invalid("approve", state)
	}
	o.ApprovedAt = timePtr(at)
	o.ApproverID = actorID
	return nil
}

// RevokeApproval returns an approved order to the received state.
func (o *Order) RevokeApproval() bool {
	if o.ApprovedAt == nil || o.IsClosed() {
		return false
	}
	o.ApprovedAt = nil
	o.ApproverID = ""
	return true
}

// Clone returns a deep copy.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	ret := *o
	ret.ItemIDs = append([]string(nil), o.ItemIDs...)
	ret.ReceivedAt = copyTime(o.ReceivedAt)
	ret.RejectedAt = copyTime(o.RejectedAt)
	ret.CancelledAt = copyTime(o.CancelledAt)
	ret.ApprovedAt = copyTime(o.ApprovedAt)
	return &ret
}

func (o *Order) invalid(transition string, state OrderState) error {
	return fmt.Errorf("%w: cannot %s order %s in state %s", ErrInvalidTransition, transition, o.ID, state)
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	ret := *t
	return &ret
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	ret := *s
	return &ret
}
