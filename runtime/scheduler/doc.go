// Package scheduler implements a single-threaded, cooperative discrete-event
// scheduler over a virtual clock.
//
// Work is expressed as processes (plain Go functions receiving a *Process).
// Each process runs on its own goroutine, but the scheduler hands control to
// exactly one of them at a time, so code between two suspension points
// executes atomically. A process suspends only when it waits for a resource
// permit (Acquire) or for virtual time to pass (Advance).
//
// Pending events are ordered by (virtual time, insertion sequence), so for a
// fixed seed and a fixed spawn order every run produces the same sequence of
// resumptions.
//
//	s := scheduler.New()
//	desk := s.NewResource("reception", 1)
//	s.Spawn("check-in", "O-1", func(p *scheduler.Process) error {
//		permit, err := p.Acquire(desk)
//		if err != nil {
//			return err
//		}
//		defer p.Release(permit)
//		return p.Advance(5 * time.Minute)
//	})
//	err := s.Run(ctx)
package scheduler
