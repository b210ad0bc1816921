package scheduler

import (
	"fmt"
	"time"
)

// ProcessFunc is the body of a process.
type ProcessFunc func(p *Process) error

// Process state constants
const (
	StateCreated   = "created"
	StateRunning   = "running"
	StateSuspended = "suspended"
	StateDone      = "done"
)

// Process is a suspendable unit of work advanced by the scheduler.
type Process struct {
	ID    uint64
	Name  string
	Owner string

	sched     *Scheduler
	fn        ProcessFunc
	state     string
	token     uint64
	cancelled bool
	held      []*Permit
	waiting   *request
	resume    chan struct{}
	yield     chan struct{}
	err       error
}

// State returns the process state.
func (p *Process) State() string { return p.state }

// Done reports whether the process terminated.
func (p *Process) Done() bool { return p.state == StateDone }

// Err returns the error the process terminated with.
func (p *Process) Err() error { return p.err }

// Cancelled reports whether the process was cancelled.
func (p *Process) Cancelled() bool { return p.cancelled }

// Now returns the current virtual time.
func (p *Process) Now() time.Duration { return p.sched.now }

// Advance suspends the process for d of virtual time.
func (p *Process) Advance(d time.Duration) error {
	if p.cancelled {
		return ErrCancelled
	}
	if d < 0 {
		d = 0
	}
	p.sched.schedule(p, p.sched.now+d)
	p.suspend()
	if p.cancelled {
		return ErrCancelled
	}
	return nil
}

// Acquire blocks until a unit of r is granted. Units are granted in strict
// arrival order. A zero-capacity resource fails immediately with ErrNoCapacity.
func (p *Process) Acquire(r *Resource) (*Permit, error) {
	if p.cancelled {
		return nil, ErrCancelled
	}
	if r.capacity <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCapacity, r.name)
	}
	if r.inUse < r.capacity && len(r.queue) == 0 {
		return r.grant(p, p.sched.now), nil
	}
	req := &request{proc: p, requestedAt: p.sched.now}
	r.queue = append(r.queue, req)
	p.waiting = req
	p.suspend()
	p.waiting = nil
	if req.permit == nil {
		return nil, ErrCancelled
	}
	if p.cancelled {
		_ = r.release(req.permit)
		return nil, ErrCancelled
	}
	return req.permit, nil
}

// Release returns a permit held by this process.
func (p *Process) Release(permit *Permit) error {
	if permit == nil {
		return nil
	}
	return permit.resource.release(permit)
}

func (p *Process) suspend() {
	p.state = StateSuspended
	p.yield <- struct{}{}
	<-p.resume
}

func (p *Process) run() {
	<-p.resume
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("process %s panicked: %v", p.Name, r)
			}
		}()
		err = p.fn(p)
	}()
	p.sched.complete(p, err)
	p.yield <- struct{}{}
}

func (p *Process) dropPermit(permit *Permit) {
	for i, candidate := range p.held {
		if candidate == permit {
			p.held = append(p.held[:i], p.held[i+1:]...)
			return
		}
	}
}
