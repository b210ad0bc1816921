package model

import (
	"fmt"
	"time"
)

// ItemState is derived from the item timestamps.
type ItemState string

const (
	ItemStatePending   ItemState = "pending"
	ItemStateFinished  ItemState = "finished"
	ItemStateReported  ItemState = "reported"
	ItemStateApproved  ItemState = "approved"
	ItemStateCancelled ItemState = "cancelled"
)

// OrderItem is one test instance within an order.
type OrderItem struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"orderId"`
	TestCode    string     `json:"testCode"`
	Value       *string    `json:"value,omitempty"`
	Comment     *string    `json:"comment,omitempty"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
	ReportedAt  *time.Time `json:"reportedAt,omitempty"`
	ReporterID  string     `json:"reporterId,omitempty"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	ApproverID  string     `json:"approverId,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
	CancellerID string     `json:"cancellerId,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	UpdaterID   string     `json:"updaterId,omitempty"`
}

// State returns the lifecycle state.
func (i *OrderItem) State() ItemState {
	switch {
	case i.CancelledAt != nil:
		return ItemStateCancelled
	case i.ApprovedAt != nil:
		return ItemStateApproved
	case i.ReportedAt != nil:
		return ItemStateReported
	case i.FinishedAt != nil:
		return ItemStateFinished
	}
	return ItemStatePending
}

// IsActionable reports whether a result can be reported for the item.
func (i *OrderItem) IsActionable() bool {
	return i.FinishedAt != nil && i.CancelledAt == nil
}

// Finish stamps the end of the analysis.
func (i *OrderItem) Finish(at time.Time) error {
	if state := i.State(); state != ItemStatePending {
		return i.invalid("finish", state)
	}
	i.FinishedAt = timePtr(at)
	return nil
}

// Report records the result of a finished item.
func (i *OrderItem) Report(at time.Time, actorID string, value, comment string) error {
	if state := i.State(); state != ItemStateFinished {
		return i.invalid("report", state)
	}
	i.setResult(value, comment)
	i.ReportedAt = timePtr(at)
	i.ReporterID = actorID
	return nil
}

// Approve stamps the approval of a reported item.
func (i *OrderItem) Approve(at time.Time, actorID string) error {
	if state := i.State(); state != ItemStateReported {
		return i.invalid("approve", state)
	}
	i.ApprovedAt = timePtr(at)
	i.ApproverID = actorID
	return nil
}

// Update re-enters the result of an analysed item. Any prior approval is
// cleared. It returns true when an approval was revoked.
func (i *OrderItem) Update(at time.Time, actorID string, value, comment string) (bool, error) {
	if !i.IsActionable() {
		return false, i.invalid("update", i.State())
	}
	revoked := i.ApprovedAt != nil
	i.ApprovedAt = nil
	i.ApproverID = ""
	i.setResult(value, comment)
	i.UpdatedAt = timePtr(at)
	i.UpdaterID = actorID
	return revoked, nil
}

// Cancel stamps the cancellation of a non-terminal item.
func (i *OrderItem) Cancel(at time.Time, actorID string) error {
	switch state := i.State(); state {
	case ItemStateApproved, ItemStateCancelled:
		return i.invalid("cancel", state)
	}
	i.CancelledAt = timePtr(at)
	i.CancellerID = actorID
	return nil
}

// Clone returns a deep copy.
func (i *OrderItem) Clone() *OrderItem {
	if i == nil {
		return nil
	}
	ret := *i
	ret.Value = copyString(i.Value)
	ret.Comment = copyString(i.Comment)
	ret.FinishedAt = copyTime(i.FinishedAt)
	ret.ReportedAt = copyTime(i.ReportedAt)
	ret.ApprovedAt = copyTime(i.ApprovedAt)
	ret.CancelledAt = copyTime(i.CancelledAt)
	ret.UpdatedAt = copyTime(i.UpdatedAt)
	return &ret
}

func (i *OrderItem) setResult(value, comment string) {
	i.Value = nil
	if value != "" {
		i.Value = &value
	}
	i.Comment = nil
	if comment != "" {
		i.Comment = &comment
	}
}

func (i *OrderItem) invalid(transition string, state ItemState) error {
	return fmt.Errorf("%w: cannot %s item %s in state %s", ErrInvalidTransition, transition, i.ID, state)
}
