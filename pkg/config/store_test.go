package config

import (
	"path/filepath"
	"testing"
)

func TestStoreSeededSnapshot(t *testing.T) {
	cfg := Default()
	s := NewStore(cfg)

	if got := s.Snapshot(); got != cfg {
		t.Error("snapshot is not the seeded config")
	}
	if s.LoadedAt().IsZero() {
		t.Error("seeded store has zero LoadedAt")
	}
	if s.Reloads() != 0 {
		t.Errorf("reloads = %d, want 0 for the seed", s.Reloads())
	}
}

func TestStoreEmptyUntilReplaced(t *testing.T) {
	s := NewStore(nil)
	if s.Snapshot() != nil {
		t.Error("empty store returned a snapshot")
	}
	if !s.LoadedAt().IsZero() {
		t.Error("empty store has a non-zero LoadedAt")
	}

	if err := s.Replace(Default()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if s.Snapshot() == nil {
		t.Error("store still empty after Replace")
	}
}

func TestStoreReplaceKeepsOldOnInvalid(t *testing.T) {
	old := Default()
	s := NewStore(old)
	before := s.LoadedAt()

	bad := Default()
	bad.Guard.Decision.Mode = "GARBAGE"
	if err := s.Replace(bad); err == nil {
		t.Fatal("expected rejection of invalid config")
	}

	if s.Snapshot() != old {
		t.Error("invalid replace swapped the snapshot")
	}
	if !s.LoadedAt().Equal(before) {
		t.Error("invalid replace touched LoadedAt")
	}
	if s.Failures() != 1 {
		t.Errorf("failures = %d, want 1", s.Failures())
	}
	if s.Reloads() != 0 {
		t.Errorf("reloads = %d, want 0", s.Reloads())
	}
}

func TestStoreReplaceInstallsValid(t *testing.T) {
	s := NewStore(Default())

	next := Default()
	next.Server.ListenAddress = "0.0.0.0:9999"
	if err := s.Replace(next); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if got := s.Snapshot().Server.ListenAddress; got != "0.0.0.0:9999" {
		t.Errorf("listen_address = %q after replace", got)
	}
	if s.Reloads() != 1 {
		t.Errorf("reloads = %d, want 1", s.Reloads())
	}
}

func TestStoreReplaceNil(t *testing.T) {
	s := NewStore(Default())
	if err := s.Replace(nil); err == nil {
		t.Fatal("expected error replacing with nil")
	}
	if s.Snapshot() == nil {
		t.Error("nil replace cleared the snapshot")
	}
}

func TestStoreReloadFromFile(t *testing.T) {
	s := NewStore(Default())

	path := writeConfigFile(t, `
server:
  listen_address: "127.0.0.1:7777"
`)
	if err := s.ReloadFromFile(path); err != nil {
		t.Fatalf("ReloadFromFile: %v", err)
	}
	if got := s.Snapshot().Server.ListenAddress; got != "127.0.0.1:7777" {
		t.Errorf("listen_address = %q after reload", got)
	}

	old := s.Snapshot()
	if err := s.ReloadFromFile(filepath.Join(t.TempDir(), "gone.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if s.Snapshot() != old {
		t.Error("failed reload swapped the snapshot")
	}
}
