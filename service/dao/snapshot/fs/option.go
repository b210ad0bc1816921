package fs

import "github.com/viant/afs"

// Option customises the fs snapshot service.
type Option func(s *Service)

// WithFS sets the afs service, for example one backed by memory storage.
func WithFS(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}
