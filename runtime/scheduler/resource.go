package scheduler

import (
	"fmt"
	"time"
)

// Observer receives resource bookkeeping notifications. It is invoked on the
// scheduler goroutine between suspension points.
type Observer interface {
	OnGrant(resource string, wait time.Duration, inUse int)
	OnRelease(resource string, held time.Duration, inUse int)
	OnLeak(process string, resource string)
}

// Resource is a capacity-bounded counter with a FIFO wait queue. It exists
// only for the lifetime of the scheduler that created it.
type Resource struct {
	name      string
	capacity  int
	inUse     int
	queue     []*request
	sched     *Scheduler
	grants    int
	maxInUse  int
	totalWait time.Duration
}

// Permit is one granted unit of a resource.
type Permit struct {
	resource  *Resource
	holder    *Process
	grantedAt time.Duration
	released  bool
}

// Resource returns the resource name the permit belongs to.
func (p *Permit) Resource() string { return p.resource.name }

// GrantedAt returns the virtual time the permit was granted.
func (p *Permit) GrantedAt() time.Duration { return p.grantedAt }

type request struct {
	proc        *Process
	requestedAt time.Duration
	permit      *Permit
}

// Stats is a point-in-time view of resource bookkeeping.
type Stats struct {
	Name      string        `json:"name"`
	Capacity  int           `json:"capacity"`
	InUse     int           `json:"inUse"`
	Queued    int           `json:"queued"`
	Grants    int           `json:"grants"`
	MaxInUse  int           `json:"maxInUse"`
	TotalWait time.Duration `json:"totalWait"`
}

// Name returns the resource name.
func (r *Resource) Name() string { return r.name }

// Capacity returns the number of units.
func (r *Resource) Capacity() int { return r.capacity }

// Stats returns the current bookkeeping counters.
func (r *Resource) Stats() Stats {
	return Stats{
		Name:      r.name,
		Capacity:  r.capacity,
		InUse:     r.inUse,
		Queued:    len(r.queue),
		Grants:    r.grants,
		MaxInUse:  r.maxInUse,
		TotalWait: r.totalWait,
	}
}

func (r *Resource) grant(proc *Process, requestedAt time.Duration) *Permit {
	now := r.sched.now
	r.inUse++
	r.grants++
	if r.inUse > r.maxInUse {
		r.maxInUse = r.inUse
	}
	wait := now - requestedAt
	r.totalWait += wait
	permit := &Permit{resource: r, holder: proc, grantedAt: now}
	proc.held = append(proc.held, permit)
	if r.sched.observer != nil {
		r.sched.observer.OnGrant(r.name, wait, r.inUse)
	}
	return permit
}

// release returns the unit and hands it to the queue head in the same step.
func (r *Resource) release(permit *Permit) error {
	if permit.released {
		return fmt.Errorf("%w: %s", ErrPermitReleased, r.name)
	}
	permit.released = true
	permit.holder.dropPermit(permit)
	r.inUse--
	if r.sched.observer != nil {
		r.sched.observer.OnRelease(r.name, r.sched.now-permit.grantedAt, r.inUse)
	}
	for r.inUse < r.capacity && len(r.queue) > 0 {
		head := r.queue[0]
		r.queue[0] = nil
		r.queue = r.queue[1:]
		head.permit = r.grant(head.proc, head.requestedAt)
		r.sched.wake(head.proc)
	}
	return nil
}

func (r *Resource) dequeue(req *request) bool {
	for i, candidate := range r.queue {
		if candidate == req {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			return true
		}
	}
	return false
}
