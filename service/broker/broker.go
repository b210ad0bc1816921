// Package broker names the capacity-bounded resources contended for by
// workflow processes: the reception desk, the instrument and one staff pool
// per role.
package broker

import (
	"errors"
	"fmt"

	"github.com/viant/labflow/model"
	"github.com/viant/labflow/runtime/scheduler"
	"github.com/viant/labflow/service/actor"
)

// Resource names
const (
	Reception  = "reception"
	Instrument = "instrument"
)

// Config sets the capacity of the fixed resources.
type Config struct {
	Reception  int `json:"reception" yaml:"reception" validate:"gte=1"`
	Instrument int `json:"instrument" yaml:"instrument" validate:"gte=1"`
}

// DefaultConfig returns capacity 1 for both the reception and the instrument.
func DefaultConfig() Config {
	return Config{Reception: 1, Instrument: 1}
}

// PoolName returns the resource name of the staff pool for role.
func PoolName(role model.Role) string {
	return string(role) + "-pool"
}

// Broker owns the resources of one scheduler.
type Broker struct {
	resources map[string]*scheduler.Resource
	names     []string
	roles     map[string]model.Role
}

// New creates the reception and instrument resources plus one pool per role
// sized to the number of active actors holding it.
func New(sched *scheduler.Scheduler, config Config, pool *actor.Pool) *Broker {
	ret := &Broker{
		resources: map[string]*scheduler.Resource{},
		roles:     map[string]model.Role{},
	}
	ret.add(sched, Reception, config.Reception)
	ret.add(sched, Instrument, config.Instrument)
	for _, role := range []model.Role{model.RoleReporter, model.RoleApprover, model.RoleAdmin} {
		capacity := 0
		if pool != nil {
			capacity = pool.CountByRole(role)
		}
		name := PoolName(role)
		ret.add(sched, name, capacity)
		ret.roles[name] = role
	}
	return ret
}

func (b *Broker) add(sched *scheduler.Scheduler, name string, capacity int) {
	b.resources[name] = sched.NewResource(name, capacity)
	b.names = append(b.names, name)
}

// Resource returns a named resource.
func (b *Broker) Resource(name string) (*scheduler.Resource, error) {
	resource, ok := b.resources[name]
	if !ok {
		return nil, fmt.Errorf("unknown resource: %s", name)
	}
	return resource, nil
}

// Acquire blocks p until a unit of the named resource is granted. A staff
// pool without eligible actors fails with model.ErrNoEligibleActor.
func (b *Broker) Acquire(p *scheduler.Process, name string) (*scheduler.Permit, error) {
	resource, err := b.Resource(name)
	if err != nil {
		return nil, err
	}
	permit, err := p.Acquire(resource)
	if err != nil {
		if role, ok := b.roles[name]; ok && errors.Is(err, scheduler.ErrNoCapacity) {
			return nil, fmt.Errorf("%w: no active actor holds role %s: %w", model.ErrNoEligibleActor, role, err)
		}
		return nil, err
	}
	return permit, nil
}

// AcquireRole acquires a unit of the staff pool for role.
func (b *Broker) AcquireRole(p *scheduler.Process, role model.Role) (*scheduler.Permit, error) {
	return b.Acquire(p, PoolName(role))
}

// Release returns permit on behalf of p.
func (b *Broker) Release(p *scheduler.Process, permit *scheduler.Permit) error {
	return p.Release(permit)
}

// Stats returns resource counters in creation order.
func (b *Broker) Stats() []scheduler.Stats {
	ret := make([]scheduler.Stats, 0, len(b.names))
	for _, name := range b.names {
		ret = append(ret, b.resources[name].Stats())
	}
	return ret
}
