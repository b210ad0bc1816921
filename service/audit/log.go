// Package audit keeps the append-only version history of order items.
package audit

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/viant/labflow/model"
)

// Log stores versions per item. Sequence numbers start at 1 and grow by one
// without gaps.
type Log struct {
	mux      sync.RWMutex
	versions map[string][]*model.Version
}

// New creates an empty log.
func New() *Log {
	return &Log{versions: map[string][]*model.Version{}}
}

// Record appends a snapshot of the item result and returns a copy of it.
func (l *Log) Record(item *model.OrderItem, transition, actorID string, at time.Time) *model.Version {
	l.mux.Lock()
	defer l.mux.Unlock()
	history := l.versions[item.ID]
	version := &model.Version{
		ItemID:     item.ID,
		Seq:        len(history) + 1,
		Transition: transition,
		Value:      copyString(item.Value),
		Comment:    copyString(item.Comment),
		ActorID:    actorID,
		RecordedAt: at,
	}
	l.versions[item.ID] = append(history, version)
	return version.Clone()
}

// History returns copies of the item versions, oldest first. Unknown items
// have an empty history.
func (l *Log) History(itemID string) []*model.Version {
	l.mux.RLock()
	defer l.mux.RUnlock()
	history := l.versions[itemID]
	ret := make([]*model.Version, 0, len(history))
	for _, version := range history {
		ret = append(ret, version.Clone())
	}
	return ret
}

// Version returns one version by sequence number.
func (l *Log) Version(itemID string, seq int) (*model.Version, error) {
	l.mux.RLock()
	defer l.mux.RUnlock()
	history := l.versions[itemID]
	if seq < 1 || seq > len(history) {
		return nil, fmt.Errorf("item %s has no version %d", itemID, seq)
	}
	return history[seq-1].Clone(), nil
}

// Len returns the number of versions of the item.
func (l *Log) Len(itemID string) int {
	l.mux.RLock()
	defer l.mux.RUnlock()
	return len(l.versions[itemID])
}

// Diff renders a unified diff between two versions of an item.
func (l *Log) Diff(itemID string, from, to int) (string, error) {
	fromVersion, err := l.Version(itemID, from)
	if err != nil {
		return "", err
	}
	toVersion, err := l.Version(itemID, to)
	if err != nil {
		return "", err
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(render(fromVersion)),
		B:        difflib.SplitLines(render(toVersion)),
		FromFile: fmt.Sprintf("%s@%d", itemID, from),
		ToFile:   fmt.Sprintf("%s@%d", itemID, to),
		Context:  2,
	})
}

// Versions returns every version, grouped by item id in ascending order.
func (l *Log) Versions() []*model.Version {
	l.mux.RLock()
	defer l.mux.RUnlock()
	ids := make([]string, 0, len(l.versions))
	for id := range l.versions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var ret []*model.Version
	for _, id := range ids {
		for _, version := range l.versions[id] {
			ret = append(ret, version.Clone())
		}
	}
	return ret
}

// Restore replaces the log content. Versions of each item must form a gap
// free sequence starting at 1.
func (l *Log) Restore(versions []*model.Version) error {
	byItem := map[string][]*model.Version{}
	for _, version := range versions {
		byItem[version.ItemID] = append(byItem[version.ItemID], version.Clone())
	}
	for id, history := range byItem {
		sort.Slice(history, func(i, j int) bool { return history[i].Seq < history[j].Seq })
		for i, version := range history {
			if version.Seq != i+1 {
				return fmt.Errorf("item %s: expected version %d, got %d", id, i+1, version.Seq)
			}
		}
	}
	l.mux.Lock()
	l.versions = byItem
	l.mux.Unlock()
	return nil
}

func render(v *model.Version) string {
	builder := strings.Builder{}
	fmt.Fprintf(&builder, "transition: %s\n", v.Transition)
	fmt.Fprintf(&builder, "actor: %s\n", v.ActorID)
	fmt.Fprintf(&builder, "value: %s\n", deref(v.Value))
	builder.WriteString("comment:\n")
	for _, line := range strings.Split(deref(v.Comment), "\n") {
		builder.WriteString("  " + line + "\n")
	}
	return builder.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
