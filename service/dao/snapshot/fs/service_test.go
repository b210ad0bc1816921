package fs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/labflow/model"
	"github.com/viant/labflow/service/dao"
	"github.com/viant/labflow/service/dao/snapshot"
)

func fixture(name string) *snapshot.Snapshot {
	value := "5.4"
	at := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	return &snapshot.Snapshot{
		Name:      name,
		Seed:      7,
		Now:       90 * time.Minute,
		SavedAt:   at,
		Customers: []*model.Customer{{ID: "C-1", HN: "1001", FirstName: "Ann"}},
		Orders:    []*model.Order{{ID: "O-000001", CustomerID: "C-1", OrderedAt: at, ItemIDs: []string{"I-000001"}}},
		Items:     []*model.OrderItem{{ID: "I-000001", OrderID: "O-000001", TestCode: "GLU", Value: &value}},
		Versions:  []*model.Version{{ItemID: "I-000001", Seq: 1, Transition: model.TransitionReport, Value: &value, ActorID: "U-1", RecordedAt: at}},
		Transitions: []*model.Transition{
			{Seq: 1, Kind: model.KindOrder, EntityID: "O-000001", OrderID: "O-000001", Name: model.TransitionSubmit, OccurredAt: at},
		},
	}
}

func TestService_CRUD(t *testing.T) {
	ctx := context.Background()
	srv := New(filepath.Join(t.TempDir(), "snapshots"))

	_, err := srv.Load(ctx, "missing")
	assert.ErrorIs(t, err, dao.ErrNotFound)
	list, err := srv.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, srv.Save(ctx, fixture("b")))
	require.NoError(t, srv.Save(ctx, fixture("a")))

	loaded, err := srv.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, fixture("a"), loaded)

	list, err = srv.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "b", list[1].Name)

	require.NoError(t, srv.Delete(ctx, "a"))
	assert.ErrorIs(t, srv.Delete(ctx, "a"), dao.ErrNotFound)
}

func TestService_Invalid(t *testing.T) {
	ctx := context.Background()
	srv := New(t.TempDir())
	testCases := []struct {
		description string
		snapshot    *snapshot.Snapshot
		expect      error
	}{
		{description: "nil", expect: dao.ErrNilEntity},
		{description: "no name", snapshot: &snapshot.Snapshot{}, expect: dao.ErrInvalidID},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			assert.ErrorIs(t, srv.Save(ctx, testCase.snapshot), testCase.expect)
		})
	}
	_, err := srv.Load(ctx, "")
	assert.ErrorIs(t, err, dao.ErrInvalidID)
}
