package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

func record(i int, at time.Time) Record {
	return Record{
		ID:       uuid.NewString(),
		Switch:   fmt.Sprintf("switch-%d", i),
		Previous: false,
		Enabled:  true,
		Actor:    "ops",
		At:       at,
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if err := s.Append(ctx, record(i, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	records, err := s.List(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("len = %d, want 3", len(records))
	}
	if records[0].Switch != "switch-4" || records[2].Switch != "switch-2" {
		t.Errorf("records not newest first: %s .. %s", records[0].Switch, records[2].Switch)
	}
}

func TestMemoryStoreBounded(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 10; i++ {
		s.Append(ctx, record(i, base.Add(time.Duration(i)*time.Second)))
	}

	records, _ := s.List(ctx, 0)
	if len(records) != 3 {
		t.Fatalf("len = %d, want capacity 3", len(records))
	}
	if records[0].Switch != "switch-9" {
		t.Errorf("newest record = %s, want switch-9", records[0].Switch)
	}
}

func TestMemoryStorePrune(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		s.Append(ctx, record(i, base.Add(time.Duration(i)*time.Hour)))
	}

	removed, err := s.Prune(ctx, base.Add(2*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	records, _ := s.List(ctx, 0)
	if len(records) != 3 {
		t.Errorf("remaining = %d, want 3", len(records))
	}
	for _, rec := range records {
		if rec.At.Before(base.Add(2 * time.Hour)) {
			t.Errorf("record older than cutoff survived: %+v", rec)
		}
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(t.TempDir() + "/audit.db")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		if err := s.Append(ctx, record(i, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	records, err := s.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}
	if records[0].Switch != "switch-3" {
		t.Errorf("newest record = %s, want switch-3", records[0].Switch)
	}
	if !records[0].At.Equal(base.Add(3 * time.Minute)) {
		t.Errorf("timestamp = %v, want %v", records[0].At, base.Add(3*time.Minute))
	}

	removed, err := s.Prune(ctx, base.Add(2*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
}
