// Package actor holds the role-qualified staff taking part in a run.
package actor

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/labflow/internal/yml"
	"github.com/viant/labflow/model"
)

// Document is the YAML layout of an actor pool file.
type Document struct {
	Actors []*model.Actor `yaml:"actors" json:"actors"`
}

// Pool indexes actors by id. It is resolved once per run and read-only
// afterwards.
type Pool struct {
	actors map[string]*model.Actor
	ids    []string
}

// New validates and indexes actors; ids must be unique.
func New(actors ...*model.Actor) (*Pool, error) {
	ret := &Pool{actors: make(map[string]*model.Actor, len(actors))}
	for _, actor := range actors {
		if actor == nil {
			return nil, fmt.Errorf("nil actor")
		}
		if err := yml.Validator().Struct(actor); err != nil {
			return nil, fmt.Errorf("invalid actor %q: %w", actor.ID, err)
		}
		if _, ok := ret.actors[actor.ID]; ok {
			return nil, fmt.Errorf("duplicate actor id %q", actor.ID)
		}
		clone := *actor
		clone.Roles = append([]model.Role(nil), actor.Roles...)
		ret.actors[actor.ID] = &clone
		ret.ids = append(ret.ids, actor.ID)
	}
	return ret, nil
}

// Decode builds a pool from YAML.
func Decode(data []byte) (*Pool, error) {
	doc := &Document{}
	if err := yml.Decode(data, doc); err != nil {
		return nil, fmt.Errorf("failed to decode actors: %w", err)
	}
	return New(doc.Actors...)
}

// Load builds a pool from the YAML document at URL.
func Load(ctx context.Context, fs afs.Service, URL string) (*Pool, error) {
	doc := &Document{}
	if err := yml.Load(ctx, fs, URL, doc); err != nil {
		return nil, err
	}
	return New(doc.Actors...)
}

// Lookup returns an active actor; missing or inactive ids yield
// model.ErrUnknownActor.
func (p *Pool) Lookup(id string) (*model.Actor, error) {
	actor, ok := p.actors[id]
	if !ok || !actor.Active {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownActor, id)
	}
	return actor, nil
}

// CountByRole returns the number of active actors holding role.
func (p *Pool) CountByRole(role model.Role) int {
	count := 0
	for _, id := range p.ids {
		if actor := p.actors[id]; actor.Active && actor.HasRole(role) {
			count++
		}
	}
	return count
}

// WithRole returns the active actors holding role in declaration order.
func (p *Pool) WithRole(role model.Role) []*model.Actor {
	var ret []*model.Actor
	for _, id := range p.ids {
		if actor := p.actors[id]; actor.Active && actor.HasRole(role) {
			ret = append(ret, actor)
		}
	}
	return ret
}

// Len returns the number of actors, active or not.
func (p *Pool) Len() int {
	return len(p.ids)
}

// Default returns a pool with one reporter, one approver and one admin.
func Default() *Pool {
	ret, err := New(
		&model.Actor{ID: "U-1", Username: "reporter", FirstName: "Rita", Position: "Medical technologist", LicenseID: "MT-001", Roles: []model.Role{model.RoleReporter}, Active: true},
		&model.Actor{ID: "U-2", Username: "approver", FirstName: "Arun", Position: "Pathologist", LicenseID: "MD-001", Roles: []model.Role{model.RoleApprover}, Active: true},
		&model.Actor{ID: "U-3", Username: "admin", Roles: []model.Role{model.RoleAdmin}, Active: true},
	)
	if err != nil {
		panic(err)
	}
	return ret
}
