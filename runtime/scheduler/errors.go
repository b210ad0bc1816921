package scheduler

import "errors"

var (
	// ErrBusy is returned when Run is invoked while another run is in progress.
	ErrBusy = errors.New("scheduler: busy")

	// ErrCancelled is returned from suspension points of a cancelled process.
	ErrCancelled = errors.New("scheduler: process cancelled")

	// ErrNoCapacity is returned by Acquire on a resource with zero capacity.
	ErrNoCapacity = errors.New("scheduler: resource has no capacity")

	// ErrPermitLeak is returned when a process terminated while holding permits.
	ErrPermitLeak = errors.New("scheduler: permit leak")

	// ErrDeadlock is returned when processes still wait for permits after the
	// event queue drained.
	ErrDeadlock = errors.New("scheduler: deadlock")

	// ErrPermitReleased is returned when a permit is released twice.
	ErrPermitReleased = errors.New("scheduler: permit already released")
)
