package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/labflow/service/messaging"
	"github.com/viant/labflow/service/messaging/memory"
)

type change struct {
	ID   string
	Name string
}

func TestNew(t *testing.T) {
	testCases := []struct {
		description string
		vendor      string
		expectErr   bool
	}{
		{description: "memory", vendor: "memory"},
		{description: "unsupported", vendor: "kafka", expectErr: true},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			srv, err := New(messagingVendor(testCase.vendor))
			if testCase.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, srv)
		})
	}
}

func TestService_TypedListener(t *testing.T) {
	srv, err := New(VendorMemory)
	require.NoError(t, err)
	ctx := context.Background()

	var mux sync.Mutex
	var got []string
	require.NoError(t, SetListenerOf[change](ctx, srv, func(e *Event[change]) {
		mux.Lock()
		got = append(got, e.Data.Name+"@"+e.Context.EntityID)
		mux.Unlock()
	}))
	publisher, err := PublisherOf[change](srv)
	require.NoError(t, err)
	again, err := PublisherOf[change](srv)
	require.NoError(t, err)
	assert.Same(t, publisher, again)

	for _, name := range []string{"receive", "finish", "report"} {
		e := NewEvent(&Context{Kind: "item", EntityID: "I-1", Transition: name}, change{ID: "I-1", Name: name})
		require.NoError(t, publisher.Publish(ctx, e))
		assert.False(t, e.CreatedAt.IsZero())
	}
	srv.Close()
	assert.Equal(t, []string{"receive@I-1", "finish@I-1", "report@I-1"}, got)
}

func TestService_FanIn(t *testing.T) {
	srv, err := New(VendorMemory)
	require.NoError(t, err)
	ctx := context.Background()

	received := make(chan *Event[any], 4)
	srv.SetListener(ctx, func(e *Event[any]) { received <- e })
	require.NoError(t, SetListenerOf[change](ctx, srv, func(*Event[change]) {}))
	publisher, err := PublisherOf[change](srv)
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, NewEvent(&Context{Transition: "approve"}, change{ID: "I-2"})))

	select {
	case e := <-received:
		assert.Equal(t, "approve", e.Context.Transition)
		assert.Equal(t, change{ID: "I-2"}, e.Data)
	case <-time.After(time.Second):
		t.Fatal("fan-in event not delivered")
	}
	srv.Close()
}

func TestListener_Stop(t *testing.T) {
	srv, err := New(VendorMemory)
	require.NoError(t, err)
	publisher, err := PublisherOf[change](srv)
	require.NoError(t, err)
	listener := NewListener(publisher, func(*Event[change]) {}, nil)
	listener.Start(context.Background())
	done := make(chan struct{})
	go func() {
		listener.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestListener_DeadLetters(t *testing.T) {
	srv, err := New(VendorMemory, WithNewMemoryQueueConfig(func(string) memory.Config {
		return memory.Config{MaxRetries: 2, DeadLetter: true}
	}))
	require.NoError(t, err)
	ctx := context.Background()
	var mux sync.Mutex
	attempts := map[string]int{}
	require.NoError(t, SetListenerOf[change](ctx, srv, func(e *Event[change]) {
		mux.Lock()
		attempts[e.Data.ID]++
		mux.Unlock()
		if e.Data.Name == "broken" {
			panic("cannot handle " + e.Data.ID)
		}
	}))
	publisher, err := PublisherOf[change](srv)
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, NewEvent(&Context{}, change{ID: "I-1", Name: "broken"})))
	require.NoError(t, publisher.Publish(ctx, NewEvent(&Context{}, change{ID: "I-2", Name: "finish"})))
	srv.Close()

	dead := publisher.DeadLetters()
	require.Len(t, dead, 1)
	assert.Equal(t, "I-1", dead[0].Data.ID)
	assert.Equal(t, map[string]int{"I-1": 3, "I-2": 1}, attempts)
}

func messagingVendor(name string) messaging.Vendor { return messaging.Vendor(name) }
