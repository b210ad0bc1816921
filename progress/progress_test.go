package progress

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_Update(t *testing.T) {
	tracker := New("run-1")
	var seen []Counters
	tracker.OnChange(func(c Counters) { seen = append(seen, c) })

	tracker.Update(Delta{Spawned: 2, Pending: 2})
	tracker.Update(Delta{Pending: -1, Running: 1})
	tracker.Update(Delta{Running: -1, Completed: 1})

	snapshot := tracker.Snapshot()
	assert.Equal(t, "run-1", snapshot.RunID)
	assert.False(t, snapshot.StartedAt.IsZero())
	assert.Equal(t, 2, snapshot.Spawned)
	assert.Equal(t, 1, snapshot.Pending)
	assert.Equal(t, 0, snapshot.Running)
	assert.Equal(t, 1, snapshot.Settled())
	assert.False(t, snapshot.Idle())
	assert.Len(t, seen, 3)
	assert.Equal(t, 1, seen[1].Running)
}

func TestProgress_Nil(t *testing.T) {
	var tracker *Progress
	tracker.Update(Delta{Spawned: 1})
	tracker.OnChange(func(Counters) {})
	assert.Equal(t, Counters{}, tracker.Snapshot())
	assert.True(t, tracker.Snapshot().Idle())
}

func TestProgress_ConcurrentUpdates(t *testing.T) {
	tracker := New("run-2")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Update(Delta{Spawned: 1, Cancelled: 1})
		}()
	}
	wg.Wait()
	snapshot := tracker.Snapshot()
	assert.Equal(t, 50, snapshot.Spawned)
	assert.Equal(t, 50, snapshot.Settled())
}
