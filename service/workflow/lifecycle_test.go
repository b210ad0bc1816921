package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/labflow/model"
	"github.com/viant/labflow/policy"
	"github.com/viant/labflow/runtime/scheduler"
	"github.com/viant/labflow/service/dao"
)

func TestEngine_CloseOrder(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		description string
		close       func(e *Engine, orderID string) error
		expectState model.OrderState
		expectName  string
	}{
		{
			description: "reject",
			close: func(e *Engine, orderID string) error {
				return e.RejectOrder(ctx, orderID, adminID, "hemolysed", "recollect")
			},
			expectState: model.OrderStateRejected,
			expectName:  model.TransitionReject,
		},
		{
			description: "cancel",
			close: func(e *Engine, orderID string) error {
				return e.CancelOrder(ctx, orderID, adminID)
			},
			expectState: model.OrderStateCancelled,
			expectName:  model.TransitionCancel,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			f := newFixture(t, fixedConfig())
			order := f.submit(t, "CBC", "GLU", "HCT")
			approved, reported := order.Items[0].ID, order.Items[1].ID
			require.NoError(t, f.drive(t, f.engine.Report(ctx, approved, reporterID, "6", "")))
			require.NoError(t, f.drive(t, f.engine.Approve(ctx, approved, approverID)))
			require.NoError(t, f.drive(t, f.engine.Report(ctx, reported, reporterID, "80", "")))

			require.NoError(t, testCase.close(f.engine, order.ID))
			snapshot, err := f.engine.OrderSnapshot(order.ID)
			require.NoError(t, err)
			assert.Equal(t, testCase.expectState, snapshot.State)
			assert.Equal(t, model.ItemStateApproved, snapshot.Items[0].State)
			assert.Equal(t, model.ItemStateCancelled, snapshot.Items[1].State)
			assert.Equal(t, model.ItemStateCancelled, snapshot.Items[2].State)
			assert.Equal(t, adminID, snapshot.Items[2].CancellerID)

			journal := f.engine.Transitions(0)
			var names []string
			for _, transition := range journal[len(journal)-3:] {
				names = append(names, transition.Kind+":"+transition.Name)
			}
			assert.Equal(t, []string{"order:" + testCase.expectName, "item:cancel", "item:cancel"}, names)

			err = testCase.close(f.engine, order.ID)
			assert.ErrorIs(t, err, model.ErrInvalidTransition)
			err = f.drive(t, f.engine.Report(ctx, snapshot.Items[2].ID, reporterID, "40", ""))
			assert.ErrorIs(t, err, model.ErrInvalidTransition)
		})
	}
}

func adminPolicy() *policy.Policy {
	ret := policy.Default()
	ret.Roles[policy.ActionReject] = model.RoleAdmin
	ret.Roles[policy.ActionCancel] = model.RoleAdmin
	return ret
}

func TestEngine_CloseOrderErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixedConfig(), WithPolicy(adminPolicy()))
	orderID, err := f.engine.Submit(ctx, "1001", []string{"GLU"})
	require.NoError(t, err)

	assert.ErrorIs(t, f.engine.RejectOrder(ctx, orderID, reporterID, "x", ""), model.ErrUnauthorizedTransition)
	assert.ErrorIs(t, f.engine.CancelOrder(ctx, orderID, "ghost"), model.ErrUnknownActor)
	assert.ErrorIs(t, f.engine.CancelOrder(ctx, "O-999999", adminID), dao.ErrNotFound)
	snapshot, err := f.engine.OrderSnapshot(orderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatePending, snapshot.State)
}

func TestEngine_CancelPendingOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixedConfig())
	orderID, err := f.engine.Submit(ctx, "1001", []string{"CBC", "GLU"})
	require.NoError(t, err)
	require.NoError(t, f.sched.RunOnce(ctx))
	require.NoError(t, f.engine.CancelOrder(ctx, orderID, adminID))
	f.run(t)

	snapshot, err := f.engine.OrderSnapshot(orderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStateCancelled, snapshot.State)
	assert.Nil(t, snapshot.ReceivedAt)
	for _, item := range snapshot.Items {
		assert.Equal(t, model.ItemStateCancelled, item.State)
		assert.Nil(t, item.FinishedAt)
	}
	assert.Equal(t, 0, f.engine.Broker().Stats()[0].InUse)
	assert.Empty(t, f.sched.Live())
}

func TestEngine_RejectDuringAnalysis(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixedConfig())
	orderID, err := f.engine.Submit(ctx, "1001", []string{"CBC", "GLU"})
	require.NoError(t, err)
	for f.sched.Now() < 10*time.Minute {
		require.NoError(t, f.sched.RunOnce(ctx))
	}
	snapshot, err := f.engine.OrderSnapshot(orderID)
	require.NoError(t, err)
	require.Equal(t, model.OrderStateReceived, snapshot.State)

	require.NoError(t, f.engine.RejectOrder(ctx, orderID, adminID, "clotted", ""))
	f.run(t)
	snapshot, err = f.engine.OrderSnapshot(orderID)
	require.NoError(t, err)
	for _, item := range snapshot.Items {
		assert.Equal(t, model.ItemStateCancelled, item.State)
		assert.Nil(t, item.FinishedAt)
	}
	for _, transition := range f.engine.Transitions(0) {
		assert.NotEqual(t, model.TransitionFinish, transition.Name)
	}
}

func TestEngine_CancelItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixedConfig(), WithPolicy(adminPolicy()))
	order := f.submit(t, "CBC", "GLU")
	first, second := order.Items[0].ID, order.Items[1].ID

	require.NoError(t, f.drive(t, f.engine.Report(ctx, first, reporterID, "6", "")))
	require.NoError(t, f.drive(t, f.engine.Approve(ctx, first, approverID)))
	assert.ErrorIs(t, f.engine.CancelItem(ctx, first, adminID), model.ErrInvalidTransition)
	assert.ErrorIs(t, f.engine.CancelItem(ctx, second, reporterID), model.ErrUnauthorizedTransition)

	require.NoError(t, f.engine.CancelItem(ctx, second, adminID))
	snapshot, err := f.engine.OrderSnapshot(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStateCancelled, snapshot.Items[1].State)
	assert.Equal(t, model.OrderStateApproved, snapshot.State)
	assert.Equal(t, approverID, snapshot.ApproverID)
	assert.ErrorIs(t, f.engine.CancelItem(ctx, second, adminID), model.ErrInvalidTransition)
}

func TestEngine_AllCancelledItemsLeaveOrderOpen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixedConfig())
	order := f.submit(t, "GLU")
	require.NoError(t, f.engine.CancelItem(ctx, order.Items[0].ID, adminID))
	snapshot, err := f.engine.OrderSnapshot(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStateReceived, snapshot.State)
}

func TestEngine_Contention(t *testing.T) {
	f := newFixture(t, fixedConfig())
	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		orderID, err := f.engine.Submit(ctx, "1001", []string{"GLU"})
		require.NoError(t, err)
		ids = append(ids, orderID)
	}
	f.run(t)
	for i, orderID := range ids {
		snapshot, err := f.engine.OrderSnapshot(orderID)
		require.NoError(t, err)
		assert.Equal(t, DefaultEpoch.Add(time.Duration(i+1)*10*time.Minute), *snapshot.ReceivedAt)
	}
	stats := f.engine.Broker().Stats()
	for _, stat := range stats {
		assert.Zero(t, stat.InUse, stat.Name)
	}
}

func TestEngine_Deterministic(t *testing.T) {
	run := func() []string {
		f := newFixture(t, DefaultConfig())
		ctx := context.Background()
		for _, codes := range [][]string{{"CBC", "HCT"}, {"GLU"}, {"HBA1C", "UPREG", "GLU"}} {
			_, err := f.engine.Submit(ctx, "1001", codes)
			require.NoError(t, err)
		}
		f.run(t)
		var keys []string
		for _, transition := range f.engine.Transitions(0) {
			keys = append(keys, transition.Key())
		}
		return keys
	}
	first := run()
	assert.Len(t, first, 3+3+6)
	assert.Equal(t, first, run())
}

func TestEngine_ExportImport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixedConfig())
	done := f.submit(t, "GLU")
	require.NoError(t, f.drive(t, f.engine.Report(ctx, done.Items[0].ID, reporterID, "90", "")))
	pendingID, err := f.engine.Submit(ctx, "1001", []string{"CBC"})
	require.NoError(t, err)

	snap, err := f.engine.Export(ctx, "shift-1")
	require.NoError(t, err)
	assert.Equal(t, "shift-1", snap.Name)
	assert.Len(t, snap.Orders, 2)
	assert.Len(t, snap.Versions, 1)

	sched := scheduler.New(scheduler.WithStartTime(snap.Now))
	restored, err := New(sched, fixedConfig())
	require.NoError(t, err)
	require.NoError(t, restored.Import(ctx, snap))
	assert.Error(t, restored.Import(ctx, snap))
	require.NoError(t, sched.Run(ctx))

	pending, err := restored.OrderSnapshot(pendingID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStateReceived, pending.State)
	assert.Equal(t, model.ItemStateFinished, pending.Items[0].State)
	assert.Equal(t, snap.SavedAt.Add(10*time.Minute), *pending.ReceivedAt)

	history, err := restored.History(done.Items[0].ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "90", *history[0].Value)
	assert.Len(t, restored.Transitions(0), len(snap.Transitions)+2)

	nextID, err := restored.Submit(ctx, "1001", []string{"HCT"})
	require.NoError(t, err)
	assert.Equal(t, "O-000003", nextID)
}

func TestEngine_Resume(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixedConfig())
	orderID, err := f.engine.Submit(ctx, "1001", []string{"CBC", "GLU"})
	require.NoError(t, err)
	spawned, err := f.engine.Resume(ctx)
	require.NoError(t, err)
	assert.Zero(t, spawned)

	assert.Equal(t, 1, f.sched.CancelOwned(orderID))
	f.run(t)
	order, err := f.engine.OrderSnapshot(orderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatePending, order.State)

	spawned, err = f.engine.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, spawned)
	require.NoError(t, f.sched.RunOnce(ctx))
	require.NoError(t, f.sched.RunOnce(ctx))
	order, err = f.engine.OrderSnapshot(orderID)
	require.NoError(t, err)
	require.Equal(t, model.OrderStateReceived, order.State)

	for _, item := range order.Items {
		assert.Equal(t, 1, f.sched.CancelOwned(item.ID))
	}
	f.run(t)
	spawned, err = f.engine.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, spawned)
	f.run(t)
	order, err = f.engine.OrderSnapshot(orderID)
	require.NoError(t, err)
	for _, item := range order.Items {
		assert.Equal(t, model.ItemStateFinished, item.State)
	}
}

func TestEngine_ImportContinuesRandomStream(t *testing.T) {
	ctx := context.Background()
	config := DefaultConfig()
	config.Seed = 7
	f := newFixture(t, config)
	f.submit(t, "GLU")
	snap, err := f.engine.Export(ctx, "shift-1")
	require.NoError(t, err)
	assert.EqualValues(t, 7, snap.Seed)
	assert.NotEmpty(t, snap.Random)

	other := DefaultConfig()
	other.Seed = 99
	sched := scheduler.New(scheduler.WithStartTime(snap.Now))
	restored, err := New(sched, other)
	require.NoError(t, err)
	require.NoError(t, restored.Import(ctx, snap))

	expect := f.submit(t, "CBC", "HCT")
	actualID, err := restored.Submit(ctx, "1001", []string{"CBC", "HCT"})
	require.NoError(t, err)
	require.NoError(t, sched.Run(ctx))
	actual, err := restored.OrderSnapshot(actualID)
	require.NoError(t, err)

	assert.Equal(t, expect.ID, actual.ID)
	assert.Equal(t, *expect.ReceivedAt, *actual.ReceivedAt)
	for i := range expect.Items {
		assert.Equal(t, *expect.Items[i].FinishedAt, *actual.Items[i].FinishedAt)
	}
	exported, err := restored.Export(ctx, "shift-2")
	require.NoError(t, err)
	assert.EqualValues(t, 7, exported.Seed)
}
