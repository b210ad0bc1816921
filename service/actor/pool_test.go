package actor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/labflow/model"
)

const actorsYAML = `actors:
  - id: U-1
    username: rita
    roles: [reporter]
    active: true
  - id: U-2
    username: arun
    roles: [approver, reporter]
    active: true
  - id: U-3
    username: gone
    roles: [approver]
    active: false
`

func TestPool_CountByRole(t *testing.T) {
	pool, err := Decode([]byte(actorsYAML))
	require.NoError(t, err)
	testCases := []struct {
		description string
		role        model.Role
		expect      int
	}{
		{description: "reporters", role: model.RoleReporter, expect: 2},
		{description: "approvers skip inactive", role: model.RoleApprover, expect: 1},
		{description: "admins", role: model.RoleAdmin, expect: 0},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			assert.Equal(t, testCase.expect, pool.CountByRole(testCase.role))
			assert.Len(t, pool.WithRole(testCase.role), testCase.expect)
		})
	}
	assert.Equal(t, 3, pool.Len())
}

func TestPool_Lookup(t *testing.T) {
	pool, err := Decode([]byte(actorsYAML))
	require.NoError(t, err)

	actor, err := pool.Lookup("U-2")
	require.NoError(t, err)
	assert.True(t, actor.HasRole(model.RoleApprover))

	_, err = pool.Lookup("U-3")
	assert.ErrorIs(t, err, model.ErrUnknownActor)
	_, err = pool.Lookup("nobody")
	assert.ErrorIs(t, err, model.ErrUnknownActor)
}

func TestNew_Invalid(t *testing.T) {
	testCases := []struct {
		description string
		actors      []*model.Actor
	}{
		{description: "nil", actors: []*model.Actor{nil}},
		{description: "missing id", actors: []*model.Actor{{Username: "x"}}},
		{description: "unknown role", actors: []*model.Actor{{ID: "a", Username: "x", Roles: []model.Role{"janitor"}}}},
		{description: "duplicate", actors: []*model.Actor{{ID: "a", Username: "x"}, {ID: "a", Username: "y"}}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			_, err := New(testCase.actors...)
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	location := filepath.Join(t.TempDir(), "actors.yaml")
	require.NoError(t, os.WriteFile(location, []byte(actorsYAML), 0o644))
	pool, err := Load(context.Background(), afs.New(), location)
	require.NoError(t, err)
	assert.Equal(t, 2, pool.CountByRole(model.RoleReporter))
}

func TestDefault(t *testing.T) {
	pool := Default()
	assert.Equal(t, 1, pool.CountByRole(model.RoleReporter))
	assert.Equal(t, 1, pool.CountByRole(model.RoleApprover))
}
