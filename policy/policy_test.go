package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/labflow/model"
)

func TestAuthorize(t *testing.T) {
	reporter := &model.Actor{ID: "r", Roles: []model.Role{model.RoleReporter}}
	approver := &model.Actor{ID: "a", Roles: []model.Role{model.RoleApprover}}
	blocked := &Policy{Roles: Default().Roles, BlockList: []string{"Update"}}

	tests := []struct {
		name   string
		policy *Policy
		actor  *model.Actor
		action string
		expect bool
	}{
		{name: "reporter reports", policy: Default(), actor: reporter, action: ActionReport, expect: true},
		{name: "approver cannot report", policy: Default(), actor: approver, action: ActionReport, expect: false},
		{name: "approver approves", policy: Default(), actor: approver, action: ActionApprove, expect: true},
		{name: "anyone rejects", policy: Default(), actor: approver, action: ActionReject, expect: true},
		{name: "blocked update", policy: blocked, actor: reporter, action: ActionUpdate, expect: false},
		{name: "nil policy uses defaults", policy: nil, actor: reporter, action: ActionApprove, expect: false},
		{name: "nil actor", policy: Default(), actor: nil, action: ActionReport, expect: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.EqualValues(t, tc.expect, tc.policy.Authorize(tc.actor, tc.action))
		})
	}
}

func TestConfigRoundTrip(t *testing.T) {
	cfg := &Config{Roles: map[string]string{"Report": "admin"}, BlockList: []string{"cancel"}}
	p := FromConfig(cfg)
	assert.EqualValues(t, model.RoleAdmin, p.RequiredRole(ActionReport))
	assert.EqualValues(t, model.Role(""), p.RequiredRole(ActionApprove))
	assert.False(t, p.IsAllowed("CANCEL"))
	assert.EqualValues(t, "admin", ToConfig(p).Roles["report"])
	assert.EqualValues(t, model.RoleReporter, FromConfig(nil).RequiredRole(ActionReport))
}
