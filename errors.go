package labflow

import (
	"github.com/viant/labflow/model"
	"github.com/viant/labflow/runtime/scheduler"
)

// Errors returned by Service, matched with errors.Is.
var (
	ErrUnknownTest            = model.ErrUnknownTest
	ErrEmptyOrder             = model.ErrEmptyOrder
	ErrUnknownCustomer        = model.ErrUnknownCustomer
	ErrUnknownActor           = model.ErrUnknownActor
	ErrNoEligibleActor        = model.ErrNoEligibleActor
	ErrUnauthorizedTransition = model.ErrUnauthorizedTransition
	ErrInvalidTransition      = model.ErrInvalidTransition
	ErrInvalidValue           = model.ErrInvalidValue

	// ErrSchedulerBusy is returned when the scheduler is already being driven.
	ErrSchedulerBusy = scheduler.ErrBusy
	// ErrPermitLeak reports a process that terminated holding a resource.
	ErrPermitLeak = scheduler.ErrPermitLeak
	// ErrDeadlock reports processes waiting on permits nobody will release.
	ErrDeadlock  = scheduler.ErrDeadlock
	ErrCancelled = scheduler.ErrCancelled
)
