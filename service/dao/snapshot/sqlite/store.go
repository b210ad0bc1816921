// Package sqlite stores snapshots in a single SQLite table as JSON blobs,
// one row per (snapshot, bucket).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/viant/labflow/service/dao"
	"github.com/viant/labflow/service/dao/snapshot"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

const (
	bucketMeta        = "meta"
	bucketCustomers   = "customers"
	bucketOrders      = "orders"
	bucketItems       = "items"
	bucketVersions    = "versions"
	bucketTransitions = "transitions"
)

var buckets = []string{bucketMeta, bucketCustomers, bucketOrders, bucketItems, bucketVersions, bucketTransitions}

// Store persists snapshots into the state table.
type Store struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

var _ snapshot.Store = (*Store)(nil)

// NewStore opens or creates the database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "labflow.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		name TEXT NOT NULL,
		bucket TEXT NOT NULL,
		payload BLOB NOT NULL,
		PRIMARY KEY (name, bucket)
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Save replaces every bucket of the snapshot in one transaction.
func (s *Store) Save(ctx context.Context, snap *snapshot.Snapshot) (retErr error) {
	if snap == nil {
		return dao.ErrNilEntity
	}
	if snap.Name == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM state WHERE name = ?`, snap.Name); err != nil {
		return fmt.Errorf("delete %s: %w", snap.Name, err)
	}
	for _, bucket := range buckets {
		var data []byte
		switch bucket {
		case bucketMeta:
			data, err = json.Marshal(snap.Meta())
		case bucketCustomers:
			data, err = json.Marshal(snap.Customers)
		case bucketOrders:
			data, err = json.Marshal(snap.Orders)
		case bucketItems:
			data, err = json.Marshal(snap.Items)
		case bucketVersions:
			data, err = json.Marshal(snap.Versions)
		case bucketTransitions:
			data, err = json.Marshal(snap.Transitions)
		}
		if err != nil {
			return fmt.Errorf("encode %s: %w", bucket, err)
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO state(name, bucket, payload) VALUES(?, ?, ?)`, snap.Name, bucket, data); err != nil {
			return fmt.Errorf("insert %s/%s: %w", snap.Name, bucket, err)
		}
	}
	return tx.Commit()
}

// Load reassembles a snapshot from its buckets.
func (s *Store) Load(ctx context.Context, name string) (*snapshot.Snapshot, error) {
	if name == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, name)
}

func (s *Store) load(ctx context.Context, name string) (*snapshot.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state WHERE name = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	ret := &snapshot.Snapshot{}
	found := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		found = true
		switch bucket {
		case bucketMeta:
			meta := snapshot.Meta{}
			err = json.Unmarshal(payload, &meta)
			ret.SetMeta(meta)
		case bucketCustomers:
			err = json.Unmarshal(payload, &ret.Customers)
		case bucketOrders:
			err = json.Unmarshal(payload, &ret.Orders)
		case bucketItems:
			err = json.Unmarshal(payload, &ret.Items)
		case bucketVersions:
			err = json.Unmarshal(payload, &ret.Versions)
		case bucketTransitions:
			err = json.Unmarshal(payload, &ret.Transitions)
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", bucket, err)
		}
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", dao.ErrNotFound, name)
	}
	return ret, nil
}

// Delete removes every bucket of the snapshot.
func (s *Store) Delete(ctx context.Context, name string) error {
	if name == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.db.ExecContext(ctx, `DELETE FROM state WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: %s", dao.ErrNotFound, name)
	}
	return nil
}

// List returns every snapshot ordered by name.
func (s *Store) List(ctx context.Context, _ ...*dao.Parameter) ([]*snapshot.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT name FROM state ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select names: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan: %w", err)
		}
		names = append(names, name)
	}
	_ = rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}
	ret := make([]*snapshot.Snapshot, 0, len(names))
	for _, name := range names {
		snap, err := s.load(ctx, name)
		if err != nil {
			return nil, err
		}
		ret = append(ret, snap)
	}
	return ret, nil
}
