package policy

import (
	"strings"

	"github.com/viant/labflow/model"
)

// Actions recognised by the engine.
const (
	ActionReport  = "report"
	ActionApprove = "approve"
	ActionUpdate  = "update"
	ActionReject  = "reject"
	ActionCancel  = "cancel"
)

// Policy represents the role requirements for the current engine.
//
//   - Roles maps an action to the role an actor must hold; actions missing
//     from the map need no role.
//   - BlockList disables actions regardless of role.
//
// A nil *Policy falls back to Default().
type Policy struct {
	Roles     map[string]model.Role
	BlockList []string
}

// Config represents the declarative, serialisable part of a Policy.
type Config struct {
	Roles     map[string]string `json:"roles,omitempty" yaml:"roles,omitempty" validate:"dive,keys,oneof=report approve update reject cancel,endkeys,oneof=admin approver reporter"`
	BlockList []string          `json:"block,omitempty" yaml:"block,omitempty" validate:"dive,oneof=report approve update reject cancel"`
}

// Default returns the laboratory defaults: reporters report and update
// results, approvers approve them, reject and cancel need no role.
func Default() *Policy {
	return &Policy{
		Roles: map[string]model.Role{
			ActionReport:  model.RoleReporter,
			ActionUpdate:  model.RoleReporter,
			ActionApprove: model.RoleApprover,
		},
	}
}

// DefaultConfig returns the Config form of Default.
func DefaultConfig() *Config {
	return ToConfig(Default())
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	ret := &Config{
		Roles:     make(map[string]string, len(p.Roles)),
		BlockList: append([]string(nil), p.BlockList...),
	}
	for action, role := range p.Roles {
		ret.Roles[action] = string(role)
	}
	return ret
}

// FromConfig converts a stored Config back to a runtime Policy. A nil config
// yields Default().
func FromConfig(c *Config) *Policy {
	if c == nil {
		return Default()
	}
	ret := &Policy{
		Roles:     make(map[string]model.Role, len(c.Roles)),
		BlockList: append([]string(nil), c.BlockList...),
	}
	for action, role := range c.Roles {
		ret.Roles[strings.ToLower(action)] = model.Role(role)
	}
	return ret
}

// RequiredRole returns the role needed for action; empty means any actor.
func (p *Policy) RequiredRole(action string) model.Role {
	if p == nil {
		p = Default()
	}
	return p.Roles[strings.ToLower(action)]
}

// IsAllowed evaluates BlockList by case-insensitive comparison.
func (p *Policy) IsAllowed(action string) bool {
	if p == nil {
		return true
	}
	normalized := strings.ToLower(action)
	for _, b := range p.BlockList {
		if normalized == strings.ToLower(b) {
			return false
		}
	}
	return true
}

// Authorize reports whether actor may perform action.
func (p *Policy) Authorize(actor *model.Actor, action string) bool {
	if !p.IsAllowed(action) {
		return false
	}
	return actor.HasRole(p.RequiredRole(action))
}
