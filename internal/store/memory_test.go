package store

import (
	"errors"
	"testing"
	"time"
)

func report(id, file string, started time.Time) RunReport {
	return RunReport{
		ID:          id,
		File:        file,
		StartedAt:   started,
		SensorCount: 2,
	}
}

func TestMemoryStoreLatest(t *testing.T) {
	s := NewMemoryStore(10, 0)
	now := time.Now().UTC()

	s.Record(report("a", "sensors.yml", now.Add(-2*time.Minute)))
	s.Record(report("b", "sensors.yml", now.Add(-time.Minute)))

	latest, err := s.Latest("sensors.yml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.ID != "b" {
		t.Fatalf("expected latest report b, got %q", latest.ID)
	}

	if _, err := s.Latest("other.yml"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreRecent(t *testing.T) {
	s := NewMemoryStore(10, 0)
	now := time.Now().UTC()

	s.Record(report("a", "sensors.yml", now.Add(-3*time.Minute)))
	s.Record(report("b", "sensors.yml", now.Add(-2*time.Minute)))
	s.Record(report("c", "sensors.yml", now.Add(-time.Minute)))

	recent, err := s.Recent("sensors.yml", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "c" || recent[1].ID != "b" {
		t.Fatalf("expected [c b], got %v", recent)
	}

	// A non-positive limit returns the full history.
	all, err := s.Recent("sensors.yml", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(all))
	}

	if _, err := s.Recent("other.yml", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreCountRetention(t *testing.T) {
	s := NewMemoryStore(2, 0)
	now := time.Now().UTC()

	s.Record(report("a", "sensors.yml", now.Add(-3*time.Minute)))
	s.Record(report("b", "sensors.yml", now.Add(-2*time.Minute)))
	s.Record(report("c", "sensors.yml", now.Add(-time.Minute)))

	all, err := s.Recent("sensors.yml", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 || all[0].ID != "c" || all[1].ID != "b" {
		t.Fatalf("expected oldest report dropped, got %v", all)
	}
}

func TestMemoryStoreAgeRetention(t *testing.T) {
	s := NewMemoryStore(0, time.Hour)
	now := time.Now().UTC()

	s.Record(report("stale", "sensors.yml", now.Add(-2*time.Hour)))
	s.Record(report("fresh", "sensors.yml", now))

	all, err := s.Recent("sensors.yml", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 || all[0].ID != "fresh" {
		t.Fatalf("expected stale report pruned, got %v", all)
	}
}

func TestMemoryStoreKeysByFile(t *testing.T) {
	s := NewMemoryStore(10, 0)
	now := time.Now().UTC()

	s.Record(report("a", "east.yml", now))
	s.Record(report("b", "west.yml", now))

	latest, err := s.Latest("east.yml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.ID != "a" {
		t.Fatalf("expected report a, got %q", latest.ID)
	}
}
