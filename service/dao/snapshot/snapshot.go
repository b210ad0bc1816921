// Package snapshot defines the structured record of a whole entity model, as
// exchanged with storage collaborators.
package snapshot

import (
	"time"

	"github.com/viant/labflow/model"
	"github.com/viant/labflow/service/dao"
)

// Snapshot is the plain-record form of an entity model at one virtual
// instant.
type Snapshot struct {
	Name        string              `json:"name"`
	Seed        uint64              `json:"seed"`
	Random      []byte              `json:"random,omitempty"`
	Now         time.Duration       `json:"now"`
	SavedAt     time.Time           `json:"savedAt"`
	Customers   []*model.Customer   `json:"customers"`
	Orders      []*model.Order      `json:"orders"`
	Items       []*model.OrderItem  `json:"items"`
	Versions    []*model.Version    `json:"versions"`
	Transitions []*model.Transition `json:"transitions"`
}

// Store persists snapshots by name.
type Store = dao.Service[string, Snapshot]

// Key returns the snapshot name.
func Key(s *Snapshot) string {
	return s.Name
}

// Meta is the header record of a snapshot, without entity collections.
type Meta struct {
	Name    string        `json:"name"`
	Seed    uint64        `json:"seed"`
	Random  []byte        `json:"random,omitempty"`
	Now     time.Duration `json:"now"`
	SavedAt time.Time     `json:"savedAt"`
}

// Meta returns the header record.
func (s *Snapshot) Meta() Meta {
	return Meta{Name: s.Name, Seed: s.Seed, Random: s.Random, Now: s.Now, SavedAt: s.SavedAt}
}

// SetMeta copies the header record onto s.
func (s *Snapshot) SetMeta(meta Meta) {
	s.Name, s.Seed, s.Random, s.Now, s.SavedAt = meta.Name, meta.Seed, meta.Random, meta.Now, meta.SavedAt
}
