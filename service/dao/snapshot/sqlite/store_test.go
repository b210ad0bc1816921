package sqlite

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

func fixture(name string, seed uint64) *snapshot.Snapshot {
	at := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	return &snapshot.Snapshot{
		Name:      name,
		Seed:      seed,
		Now:       time.Hour,
		SavedAt:   at,
		Customers: []*model.Customer{{ID: "C-1", HN: "1001"}},
		Orders:    []*model.Order{{ID: "O-000001", CustomerID: "C-1", OrderedAt: at, ReceivedAt: &at, ItemIDs: []string{"I-000001"}}},
		Items:     []*model.OrderItem{{ID: "I-000001", OrderID: "O-000001", TestCode: "CBC", FinishedAt: &at}},
		Versions:  []*model.Version{},
		Transitions: []*model.Transition{
			{Seq: 1, Kind: model.KindOrder, EntityID: "O-000001", OrderID: "O-000001", Name: model.TransitionReceive, At: time.Minute, OccurredAt: at},
		},
	}
}

func newStore(t *testing.T) *Store {
	store, err := NewStore(filepath.Join(t.TempDir(), "db", "labflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.Save(ctx, fixture("run", 1)))
	require.NoError(t, store.Save(ctx, fixture("run", 2)))

	loaded, err := store.Load(ctx, "run")
	require.NoError(t, err)
	assert.Equal(t, fixture("run", 2), loaded)
}

func TestStore_ListDelete(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Save(ctx, fixture("b", 1)))
	require.NoError(t, store.Save(ctx, fixture("a", 1)))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)

	require.NoError(t, store.Delete(ctx, "a"))
	assert.ErrorIs(t, store.Delete(ctx, "a"), dao.ErrNotFound)
	_, err = store.Load(ctx, "a")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestStore_Invalid(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
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
			assert.ErrorIs(t, store.Save(ctx, testCase.snapshot), testCase.expect)
		})
	}
}

func TestStore_Reopen(t *testing.T) {
	ctx := context.Background()
	location := filepath.Join(t.TempDir(), "labflow.db")
	store, err := NewStore(location)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, fixture("run", 3)))
	require.NoError(t, store.Close())

	reopened, err := NewStore(location)
	require.NoError(t, err)
	defer reopened.Close()
	loaded, err := reopened.Load(ctx, "run")
	require.NoError(t, err)
	assert.EqualValues(t, 3, loaded.Seed)
}
