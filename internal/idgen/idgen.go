package idgen

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// NewFunc returns a new globally unique identifier as string. It is
// implemented as a thin wrapper so tests can stub it.
var NewFunc = func() string { return uuid.New().String() }

func New() string { return NewFunc() }

// Sequence hands out "<prefix>-<n>" identifiers with n starting at 1.
type Sequence struct {
	prefix string
	next   int
	mux    sync.Mutex
}

// NewSequence creates a sequence for the supplied prefix.
func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

// Next returns the following identifier.
func (s *Sequence) Next() string {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.next++
	return fmt.Sprintf("%s-%06d", s.prefix, s.next)
}

// Reset moves the sequence so that the following id is greater than n.
// It is used after importing previously persisted entities.
func (s *Sequence) Reset(n int) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if n > s.next {
		s.next = n
	}
}

// Observe advances the sequence past id when id carries this prefix.
func (s *Sequence) Observe(id string) {
	suffix, ok := strings.CutPrefix(id, s.prefix+"-")
	if !ok {
		return
	}
	if n, err := strconv.Atoi(suffix); err == nil {
		s.Reset(n)
	}
}
