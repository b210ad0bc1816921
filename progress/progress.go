package progress

import (
	"sync"
	"time"

	"github.com/viant/labflow/internal/clock"
)

// Delta is a signed change applied to the counters.
type Delta struct {
	Spawned   int
	Completed int
	Cancelled int
	Failed    int
	Running   int
	Pending   int
}

// Counters is a point-in-time copy of a run's process counters.
type Counters struct {
	RunID     string    `json:"runId"`
	StartedAt time.Time `json:"startedAt"`
	Spawned   int       `json:"spawned"`
	Completed int       `json:"completed"`
	Cancelled int       `json:"cancelled"`
	Failed    int       `json:"failed"`
	Running   int       `json:"running"`
	Pending   int       `json:"pending"`
	// Events is the number of queued scheduler wake-ups; filled by readers
	// that own the scheduler.
	Events int `json:"events"`
}

// Settled returns the number of terminated processes.
func (c Counters) Settled() int {
	return c.Completed + c.Cancelled + c.Failed
}

// Idle reports whether no process is pending or running.
func (c Counters) Idle() bool {
	return c.Running == 0 && c.Pending == 0
}

// Progress aggregates the counters of one run. It is safe for concurrent use
// and a nil *Progress ignores updates.
type Progress struct {
	mux      sync.Mutex
	counters Counters
	onChange func(Counters)
}

// New creates a tracker for runID started now.
func New(runID string) *Progress {
	return &Progress{counters: Counters{RunID: runID, StartedAt: clock.Now()}}
}

// Update applies d. A registered callback receives the updated counters
// outside the critical section.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.mux.Lock()
	c := &p.counters
	c.Spawned += d.Spawned
	c.Completed += d.Completed
	c.Cancelled += d.Cancelled
	c.Failed += d.Failed
	c.Running += d.Running
	c.Pending += d.Pending
	snapshot := *c
	cb := p.onChange
	p.mux.Unlock()
	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the counters.
func (p *Progress) Snapshot() Counters {
	if p == nil {
		return Counters{}
	}
	p.mux.Lock()
	defer p.mux.Unlock()
	return p.counters
}

// OnChange registers cb to run after every Update; nil disables it.
func (p *Progress) OnChange(cb func(Counters)) {
	if p == nil {
		return
	}
	p.mux.Lock()
	p.onChange = cb
	p.mux.Unlock()
}
