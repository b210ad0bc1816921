package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/viant/labflow/internal/clock"
	"github.com/viant/labflow/progress"
)

// Scheduler advances virtual time and resumes processes one at a time.
type Scheduler struct {
	now       time.Duration
	seq       uint64
	processes uint64
	queue     eventHeap
	live      []*Process
	resources []*Resource
	leaks     []string
	running   atomic.Bool
	locker    sync.Locker
	factor    float64
	observer  Observer
	progress  *progress.Progress
}

// New creates a scheduler at virtual time zero.
func New(options ...Option) *Scheduler {
	ret := &Scheduler{}
	for _, option := range options {
		option(ret)
	}
	heap.Init(&ret.queue)
	return ret
}

// Now returns the current virtual time.
func (s *Scheduler) Now() time.Duration { return s.now }

// Pending returns the number of queued events.
func (s *Scheduler) Pending() int { return s.queue.Len() }

// NewResource creates a resource owned by this scheduler.
func (s *Scheduler) NewResource(name string, capacity int) *Resource {
	if capacity < 0 {
		capacity = 0
	}
	ret := &Resource{name: name, capacity: capacity, sched: s}
	s.resources = append(s.resources, ret)
	return ret
}

// Resources returns the resources created by this scheduler.
func (s *Scheduler) Resources() []*Resource {
	return append([]*Resource(nil), s.resources...)
}

// Spawn registers a process that starts at the current virtual time.
func (s *Scheduler) Spawn(name, owner string, fn ProcessFunc) *Process {
	s.processes++
	p := &Process{
		ID:     s.processes,
		Name:   name,
		Owner:  owner,
		sched:  s,
		fn:     fn,
		state:  StateCreated,
		resume: make(chan struct{}),
		yield:  make(chan struct{}),
	}
	s.live = append(s.live, p)
	s.schedule(p, s.now)
	s.progress.Update(progress.Delta{Spawned: 1, Pending: 1})
	return p
}

// Cancel flags p as cancelled. A process that has not started is discarded
// without running; a suspended process is woken at the current virtual time
// so that its suspension point returns ErrCancelled. Permits still held when
// a cancelled process terminates are released.
func (s *Scheduler) Cancel(p *Process) bool {
	if p == nil || p.state == StateDone || p.cancelled {
		return false
	}
	p.cancelled = true
	if p.state == StateSuspended {
		if req := p.waiting; req != nil && req.permit == nil {
			for _, r := range s.resources {
				if r.dequeue(req) {
					break
				}
			}
		}
		s.wake(p)
	}
	return true
}

// CancelOwned cancels every live process with the given owner and returns
// the number of processes flagged.
func (s *Scheduler) CancelOwned(owner string) int {
	count := 0
	for _, p := range append([]*Process(nil), s.live...) {
		if p.Owner == owner && s.Cancel(p) {
			count++
		}
	}
	return count
}

// Live returns processes that have not terminated, in spawn order.
func (s *Scheduler) Live() []*Process {
	return append([]*Process(nil), s.live...)
}

// Run drains the event queue.
func (s *Scheduler) Run(ctx context.Context) error {
	return s.run(ctx, nil, false)
}

// RunOnce processes every event due at the earliest pending virtual time.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.run(ctx, nil, true)
}

// RunUntil processes events until p terminates or the queue drains.
func (s *Scheduler) RunUntil(ctx context.Context, p *Process) error {
	return s.run(ctx, p.Done, false)
}

// Shutdown cancels every live process and drains their unwinding.
func (s *Scheduler) Shutdown() error {
	s.lock()
	for _, p := range s.Live() {
		s.Cancel(p)
	}
	s.unlock()
	err := s.Run(context.Background())
	if errors.Is(err, ErrDeadlock) {
		return nil
	}
	return err
}

func (s *Scheduler) lock() {
	if s.locker != nil {
		s.locker.Lock()
	}
}

func (s *Scheduler) unlock() {
	if s.locker != nil {
		s.locker.Unlock()
	}
}

func (s *Scheduler) run(ctx context.Context, stop func() bool, once bool) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer s.running.Store(false)
	aborted := false
	paced := s.now
	for {
		s.lock()
		if stop != nil && stop() {
			s.unlock()
			return nil
		}
		if s.queue.Len() == 0 {
			if len(s.live) == 0 || once {
				break
			}
			// Processes left waiting on permits that nobody will release.
			for _, p := range s.Live() {
				s.Cancel(p)
			}
			err := s.teardown(true)
			s.drain()
			s.unlock()
			return err
		}
		if !aborted && ctx.Err() != nil {
			aborted = true
			for _, p := range s.Live() {
				s.Cancel(p)
			}
		}
		head := s.queue[0]
		if delta := head.at - s.now; !aborted && s.factor > 0 && delta > 0 && head.at > paced {
			paced = head.at
			s.unlock()
			s.pace(delta)
			continue
		}
		ev := heap.Pop(&s.queue).(*event)
		if ev.token != ev.proc.token || ev.proc.state == StateDone {
			s.unlock()
			continue
		}
		s.now = ev.at
		s.step(ev.proc)
		if once && (s.queue.Len() == 0 || s.queue[0].at > s.now) {
			err := s.teardown(false)
			s.unlock()
			return err
		}
		s.unlock()
	}
	defer s.unlock()
	if err := s.teardown(false); err != nil {
		return err
	}
	if aborted {
		return fmt.Errorf("scheduler run aborted: %w", ctx.Err())
	}
	return nil
}

func (s *Scheduler) drain() {
	for s.queue.Len() > 0 {
		ev := heap.Pop(&s.queue).(*event)
		if ev.token != ev.proc.token || ev.proc.state == StateDone {
			continue
		}
		s.now = ev.at
		s.step(ev.proc)
	}
}

// teardown verifies that no permit leaked when the run reports idle.
func (s *Scheduler) teardown(deadlock bool) error {
	if deadlock {
		names := make([]string, 0, len(s.live))
		for _, p := range s.live {
			names = append(names, p.Name)
		}
		return fmt.Errorf("%w: %v", ErrDeadlock, names)
	}
	if len(s.leaks) > 0 {
		leaks := s.leaks
		s.leaks = nil
		return fmt.Errorf("%w: %v", ErrPermitLeak, leaks)
	}
	if s.queue.Len() == 0 && len(s.live) == 0 {
		var busy []string
		for _, r := range s.resources {
			if r.inUse != 0 {
				busy = append(busy, fmt.Sprintf("%s=%d", r.name, r.inUse))
			}
		}
		if len(busy) > 0 {
			sort.Strings(busy)
			return fmt.Errorf("%w: %v", ErrPermitLeak, busy)
		}
	}
	return nil
}

// step resumes p until it suspends or terminates; the locker is held.
func (s *Scheduler) step(p *Process) {
	if p.state == StateCreated {
		if p.cancelled {
			s.complete(p, ErrCancelled)
			return
		}
		p.state = StateRunning
		s.progress.Update(progress.Delta{Pending: -1, Running: 1})
		go p.run()
	} else {
		p.state = StateRunning
	}
	p.resume <- struct{}{}
	<-p.yield
}

func (s *Scheduler) complete(p *Process, err error) {
	started := p.state != StateCreated
	if len(p.held) > 0 {
		held := append([]*Permit(nil), p.held...)
		for _, permit := range held {
			if !p.cancelled {
				s.leaks = append(s.leaks, fmt.Sprintf("%s:%s", p.Name, permit.resource.name))
				if s.observer != nil {
					s.observer.OnLeak(p.Name, permit.resource.name)
				}
			}
			_ = permit.resource.release(permit)
		}
	}
	if p.cancelled && err == nil {
		err = ErrCancelled
	}
	p.err = err
	p.state = StateDone
	for i, candidate := range s.live {
		if candidate == p {
			s.live = append(s.live[:i], s.live[i+1:]...)
			break
		}
	}
	delta := progress.Delta{}
	if started {
		delta.Running = -1
	} else {
		delta.Pending = -1
	}
	switch {
	case p.cancelled:
		delta.Cancelled = 1
	case err != nil:
		delta.Failed = 1
	default:
		delta.Completed = 1
	}
	s.progress.Update(delta)
}

func (s *Scheduler) schedule(p *Process, at time.Duration) {
	s.seq++
	heap.Push(&s.queue, &event{at: at, seq: s.seq, token: p.token, proc: p})
}

// wake invalidates any pending event of p and resumes it at the current time.
func (s *Scheduler) wake(p *Process) {
	p.token++
	s.schedule(p, s.now)
}

func (s *Scheduler) pace(delta time.Duration) {
	if s.factor <= 0 || delta <= 0 {
		return
	}
	clock.Sleep(time.Duration(float64(delta) * s.factor))
}
