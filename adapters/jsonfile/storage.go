package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"lingokit/core"
	"lingokit/engine"
)

// Store persists all point records to a single JSON file.
// Suitable for demos and small deployments.
type Store struct {
	path string
	mu   sync.Mutex
	// in-memory cache for speed; the file is the durable copy
	data map[core.UserID]versionedRecord
}

type versionedRecord struct {
	Record  core.PointRecord `json:"record"`
	Version uint64           `json:"version"`
}

func New(path string) (*Store, error) {
	s := &Store{path: path, data: map[core.UserID]versionedRecord{}}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var raw map[string]versionedRecord
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		s.data[core.UserID(k)] = v
	}
	return nil
}

func (s *Store) persist() error {
	tmp := s.path + ".tmp"
	raw := make(map[string]versionedRecord, len(s.data))
	for k, v := range s.data {
		raw[string(k)] = v
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) Get(_ context.Context, user core.UserID) (core.PointRecord, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vr, ok := s.data[user]
	if !ok {
		return core.PointRecord{}, 0, nil
	}
	return vr.Record.Clone(), vr.Version, nil
}

func (s *Store) Put(_ context.Context, user core.UserID, rec core.PointRecord, expected uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.data[user].Version
	if current != expected {
		return 0, fmt.Errorf("%w: version %d, expected %d", core.ErrConflict, current, expected)
	}
	prev, existed := s.data[user]
	s.data[user] = versionedRecord{Record: rec.Clone(), Version: expected + 1}
	if err := s.persist(); err != nil {
		// a failed write must not be visible: the file is the durable copy,
		// so the cache rolls back to match it
		if existed {
			s.data[user] = prev
		} else {
			delete(s.data, user)
		}
		return 0, err
	}
	return expected + 1, nil
}

func (s *Store) List(context.Context) ([]core.PointRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.PointRecord, 0, len(s.data))
	for _, vr := range s.data {
		out = append(out, vr.Record.Clone())
	}
	return out, nil
}

var _ engine.Storage = (*Store)(nil)
