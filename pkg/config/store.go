package config

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Store holds the current configuration snapshot and swaps it atomically on
// reload. Every guard evaluation reads exactly one snapshot reference, so a
// concurrent reload can never produce a torn read of half-old, half-new
// fields.
//
// The store also records when the snapshot was loaded; the decision layer's
// CONFIG_FRESHNESS signal is derived from that timestamp.
type Store struct {
	current  atomic.Pointer[snapshot]
	reloads  atomic.Int64
	failures atomic.Int64
}

type snapshot struct {
	cfg      *Config
	loadedAt time.Time
}

// NewStore creates a store seeded with cfg. A nil cfg produces an empty store
// whose Snapshot returns nil until the first successful Replace.
func NewStore(cfg *Config) *Store {
	s := &Store{}
	if cfg != nil {
		s.current.Store(&snapshot{cfg: cfg, loadedAt: time.Now()})
	}
	return s
}

// Snapshot returns the current immutable configuration, or nil if the store
// was never seeded. Callers must not mutate the returned value.
func (s *Store) Snapshot() *Config {
	snap := s.current.Load()
	if snap == nil {
		return nil
	}
	return snap.cfg
}

// LoadedAt returns when the current snapshot was installed. The zero time
// means the store is empty.
func (s *Store) LoadedAt() time.Time {
	snap := s.current.Load()
	if snap == nil {
		return time.Time{}
	}
	return snap.loadedAt
}

// Replace validates cfg and installs it as the new snapshot. On validation
// failure the existing snapshot is kept and the failure counter incremented.
func (s *Store) Replace(cfg *Config) error {
	if cfg == nil {
		s.failures.Add(1)
		return fmt.Errorf("cannot replace configuration with nil")
	}
	if err := Validate(cfg); err != nil {
		s.failures.Add(1)
		return fmt.Errorf("rejected configuration reload: %w", err)
	}
	s.current.Store(&snapshot{cfg: cfg, loadedAt: time.Now()})
	s.reloads.Add(1)
	return nil
}

// ReloadFromFile loads path and installs the result. The existing snapshot is
// kept on any error.
func (s *Store) ReloadFromFile(path string) error {
	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		s.failures.Add(1)
		return err
	}
	return s.Replace(cfg)
}

// Reloads returns how many snapshots have been installed after the seed.
func (s *Store) Reloads() int64 { return s.reloads.Load() }

// Failures returns how many reload attempts were rejected.
func (s *Store) Failures() int64 { return s.failures.Load() }
