package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID    string
	Count int
}

func TestQueue_PublishConsume(t *testing.T) {
	queue := NewQueue[payload](DefaultConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, queue.Publish(ctx, &payload{ID: "p", Count: i}))
	}
	assert.Equal(t, 3, queue.Size())

	for i := 0; i < 3; i++ {
		msg, err := queue.Consume(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, msg.T().Count)
		assert.NoError(t, msg.Ack())
		assert.ErrorIs(t, msg.Ack(), ErrProcessed)
	}
	assert.Equal(t, 0, queue.Size())
}

func TestQueue_PublishCopiesPayload(t *testing.T) {
	queue := NewQueue[payload](DefaultConfig())
	ctx := context.Background()
	p := &payload{ID: "a"}
	require.NoError(t, queue.Publish(ctx, p))
	p.ID = "b"
	msg, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", msg.T().ID)
}

func TestQueue_Nack(t *testing.T) {
	testCases := []struct {
		description string
		config      Config
		nacks       int
		expectDLQ   int
		expectSize  int
	}{
		{description: "requeued under limit", config: Config{MaxRetries: 2, DeadLetter: true}, nacks: 1, expectSize: 1},
		{description: "dead letter after limit", config: Config{MaxRetries: 1, DeadLetter: true}, nacks: 2, expectDLQ: 1},
		{description: "dropped without dead letter", config: Config{MaxRetries: 0}, nacks: 1},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			queue := NewQueue[payload](testCase.config)
			ctx := context.Background()
			require.NoError(t, queue.Publish(ctx, &payload{ID: "x"}))
			for i := 0; i < testCase.nacks; i++ {
				msg, err := queue.Consume(ctx)
				require.NoError(t, err)
				require.NoError(t, msg.Nack(errors.New("boom")))
				assert.ErrorIs(t, msg.Nack(errors.New("boom")), ErrProcessed)
			}
			assert.Equal(t, testCase.expectSize, queue.Size())
			assert.Len(t, queue.DeadLetters(), testCase.expectDLQ)
		})
	}
}

func TestQueue_NackRequeuesAtHead(t *testing.T) {
	queue := NewQueue[payload](DefaultConfig())
	ctx := context.Background()
	require.NoError(t, queue.Publish(ctx, &payload{ID: "first"}))
	require.NoError(t, queue.Publish(ctx, &payload{ID: "second"}))
	msg, err := queue.Consume(ctx)
	require.NoError(t, err)
	require.NoError(t, msg.Nack(errors.New("retry")))
	msg, err = queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", msg.T().ID)
	assert.Equal(t, 1, msg.(*Message[payload]).Retries())
}

func TestQueue_ConsumeBlocksUntilPublish(t *testing.T) {
	queue := NewQueue[payload](DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	var got string
	go func() {
		defer wg.Done()
		msg, err := queue.Consume(ctx)
		if err == nil {
			got = msg.T().ID
		}
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, queue.Publish(context.Background(), &payload{ID: "late"}))
	wg.Wait()
	assert.Equal(t, "late", got)
}

func TestQueue_ConsumeContextDone(t *testing.T) {
	queue := NewQueue[payload](DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := queue.Consume(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueue_Close(t *testing.T) {
	queue := NewQueue[payload](DefaultConfig())
	ctx := context.Background()
	require.NoError(t, queue.Publish(ctx, &payload{ID: "kept"}))
	queue.Close()
	assert.ErrorIs(t, queue.Publish(ctx, &payload{ID: "late"}), ErrClosed)
	msg, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "kept", msg.T().ID)
	_, err = queue.Consume(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}
