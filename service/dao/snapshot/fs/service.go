// Package fs stores snapshots as JSON documents through viant/afs, so the
// base URL may point at a local directory or any afs-supported storage.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/labflow/service/dao"
	"github.com/viant/labflow/service/dao/snapshot"
)

const ext = ".json"

// Service implements a filesystem-based snapshot storage
type Service struct {
	baseURL string
	fs      afs.Service
	mu      sync.RWMutex
}

// Ensure Service implements dao.Service
var _ snapshot.Store = (*Service)(nil)

// New creates a service rooted at baseURL.
func New(baseURL string, options ...Option) *Service {
	ret := &Service{baseURL: baseURL, fs: afs.New()}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Save persists a snapshot
func (s *Service) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	if snap == nil {
		return dao.ErrNilEntity
	}
	if snap.Name == "" {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	location := s.location(snap.Name)
	if err = s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save snapshot to %s: %w", location, err)
	}
	return nil
}

// Load retrieves a snapshot by name
func (s *Service) Load(ctx context.Context, name string) (*snapshot.Snapshot, error) {
	if name == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(ctx, s.location(name))
}

func (s *Service) load(ctx context.Context, location string) (*snapshot.Snapshot, error) {
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check if snapshot exists: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", dao.ErrNotFound, location)
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}
	ret := &snapshot.Snapshot{}
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot %s: %w", location, err)
	}
	return ret, nil
}

// Delete removes a snapshot
func (s *Service) Delete(ctx context.Context, name string) error {
	if name == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	location := s.location(name)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to check if snapshot exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", dao.ErrNotFound, location)
	}
	return s.fs.Delete(ctx, location)
}

// List returns every stored snapshot ordered by name
func (s *Service) List(ctx context.Context, _ ...*dao.Parameter) ([]*snapshot.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exists, err := s.fs.Exists(ctx, s.baseURL)
	if err != nil || !exists {
		return nil, err
	}
	objects, err := s.fs.List(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.baseURL, err)
	}
	var ret []*snapshot.Snapshot
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ext) {
			continue
		}
		snap, err := s.load(ctx, object.URL())
		if err != nil {
			return nil, err
		}
		ret = append(ret, snap)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret, nil
}

func (s *Service) location(name string) string {
	return url.Join(s.baseURL, path.Base(name)+ext)
}
