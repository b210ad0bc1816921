package model

// Role is a capability granted to an actor.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleApprover Role = "approver"
	RoleReporter Role = "reporter"
)

// Actor is a staff identity referenced by orders and items.
type Actor struct {
	ID        string `json:"id" yaml:"id" validate:"required"`
	Username  string `json:"username" yaml:"username" validate:"required"`
	FirstName string `json:"firstName,omitempty" yaml:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty" yaml:"lastName,omitempty"`
	Position  string `json:"position,omitempty" yaml:"position,omitempty"`
	LicenseID string `json:"licenseId,omitempty" yaml:"licenseId,omitempty"`
	Roles     []Role `json:"roles" yaml:"roles" validate:"dive,oneof=admin approver reporter"`
	Active    bool   `json:"active" yaml:"active"`
}

// HasRole reports whether the actor holds role. An empty role is held by
// every actor.
func (a *Actor) HasRole(role Role) bool {
	if a == nil {
		return false
	}
	if role == "" {
		return true
	}
	for _, candidate := range a.Roles {
		if candidate == role {
			return true
		}
	}
	return false
}
