// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists analysis results, author profiles, and
// publication lists as JSON files under a root directory, one
// subdirectory per record class with its own expiry policy.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Class selects a cache subdirectory and its expiry policy.
type Class string

const (
	// ClassAnalysis holds full analysis results. Citation lists drift as
	// new papers appear, so entries expire after a week.
	ClassAnalysis Class = "analysis"

	// ClassAuthor holds author profiles. Metrics move slowly; a month.
	ClassAuthor Class = "author"

	// ClassPublications holds per-author publication title lists. These
	// only grow, so entries never expire.
	ClassPublications Class = "publications"
)

// TTL returns the class's expiry window, zero meaning no expiry.
func (c Class) TTL() time.Duration {
	switch c {
	case ClassAnalysis:
		return 7 * 24 * time.Hour
	case ClassAuthor:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// envelope wraps every cached payload with its write time.
type envelope struct {
	CachedAt time.Time       `json:"cached_at"`
	Payload  json.RawMessage `json:"payload"`
}

// Store is a file-backed cache. A disabled store misses on every read
// and drops every write, so callers never branch on configuration.
type Store struct {
	dir      string
	disabled bool

	// now is replaceable in tests.
	now func() time.Time
}

// NewStore returns a store rooted at dir. The directory is created on
// first write, not here.
func NewStore(dir string, disabled bool) *Store {
	return &Store{dir: dir, disabled: disabled, now: time.Now}
}

// path derives the record's file name from a sha256 of its key, keeping
// arbitrary titles and names out of the filesystem namespace.
func (s *Store) path(class Class, key string) string {
	sum := sha256.Sum256([]byte(string(class) + ":" + key))
	return filepath.Join(s.dir, string(class), fmt.Sprintf("%x.json", sum[:16]))
}

// Get loads the record for key into out. A missing, expired, or corrupt
// entry is a miss, never an error: the cache degrades to a fetch.
func (s *Store) Get(class Class, key string, out any) bool {
	if s.disabled {
		return false
	}
	data, err := os.ReadFile(s.path(class, key))
	if err != nil {
		return false
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		// Corrupt entry: drop it so the next write starts clean.
		os.Remove(s.path(class, key))
		return false
	}
	if ttl := class.TTL(); ttl > 0 && s.now().Sub(env.CachedAt) > ttl {
		os.Remove(s.path(class, key))
		return false
	}
	if err := json.Unmarshal(env.Payload, out); err != nil {
		os.Remove(s.path(class, key))
		return false
	}
	return true
}

// Age reports how long ago the record for key was written.
func (s *Store) Age(class Class, key string) (time.Duration, bool) {
	if s.disabled {
		return 0, false
	}
	data, err := os.ReadFile(s.path(class, key))
	if err != nil {
		return 0, false
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return 0, false
	}
	return s.now().Sub(env.CachedAt), true
}

// Put stores v under key. The write goes to a temp file first and moves
// into place, so a crashed writer never leaves a torn record.
func (s *Store) Put(class Class, key string, v any) error {
	if s.disabled {
		return nil
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling cache payload: %w", err)
	}
	env := envelope{CachedAt: s.now(), Payload: payload}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache envelope: %w", err)
	}

	target := s.path(class, key)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("moving cache entry into place: %w", err)
	}
	return nil
}

// Invalidate removes the record for key if present.
func (s *Store) Invalidate(class Class, key string) error {
	if s.disabled {
		return nil
	}
	err := os.Remove(s.path(class, key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes every record in every class.
func (s *Store) Clear() error {
	if s.disabled {
		return nil
	}
	for _, class := range []Class{ClassAnalysis, ClassAuthor, ClassPublications} {
		if err := os.RemoveAll(filepath.Join(s.dir, string(class))); err != nil {
			return fmt.Errorf("clearing %s cache: %w", class, err)
		}
	}
	return nil
}

// ClassStats summarizes one class's on-disk footprint. Oldest and
// Newest are the write times of the extreme entries, zero when the
// class is empty.
type ClassStats struct {
	Entries int       `json:"entries"`
	Bytes   int64     `json:"bytes"`
	Oldest  time.Time `json:"oldest,omitzero"`
	Newest  time.Time `json:"newest,omitzero"`
}

// Stats walks the cache directories and reports entry counts, sizes,
// and the oldest and newest write per class. Entries land via rename,
// so the file modification time is the envelope's write time.
func (s *Store) Stats() (map[Class]ClassStats, error) {
	out := make(map[Class]ClassStats)
	for _, class := range []Class{ClassAnalysis, ClassAuthor, ClassPublications} {
		var cs ClassStats
		entries, err := os.ReadDir(filepath.Join(s.dir, string(class)))
		if err != nil {
			if os.IsNotExist(err) {
				out[class] = cs
				continue
			}
			return nil, fmt.Errorf("reading %s cache: %w", class, err)
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			cs.Entries++
			cs.Bytes += info.Size()
			mod := info.ModTime()
			if cs.Oldest.IsZero() || mod.Before(cs.Oldest) {
				cs.Oldest = mod
			}
			if mod.After(cs.Newest) {
				cs.Newest = mod
			}
		}
		out[class] = cs
	}
	return out, nil
}
