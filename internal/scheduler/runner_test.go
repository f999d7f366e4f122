package scheduler

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ltumat/AirQualityPrediction/internal/registry"
	"github.com/ltumat/AirQualityPrediction/internal/store"
)

const runnerFixture = `sensors:
  - name: stockholm-hornsgatan
    country: sweden
    city: stockholm
    street: hornsgatan-108
    aqicn_url: https://api.waqi.info/feed/sweden/stockholm-hornsgatan-108
    latitude: 0
    longitude: 0
`

type stubResolver struct {
	err     error
	entered chan struct{} // closed on first call when set
	release chan struct{} // blocks resolution until closed when set
	called  bool
}

func (s *stubResolver) Resolve(_ context.Context, _ registry.Sensor) (registry.Coordinates, error) {
	if s.entered != nil && !s.called {
		s.called = true
		close(s.entered)
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return registry.Coordinates{}, s.err
	}
	return registry.Coordinates{Latitude: 59.3293, Longitude: 18.048775}, nil
}

func newTestRunner(t *testing.T, resolver registry.Resolver) (*Runner, *store.MemoryStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sensors.yml")
	if err := os.WriteFile(path, []byte(runnerFixture), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	service := registry.NewService(
		registry.NewStore(registry.DefaultStoreOptions()),
		resolver,
		registry.NewPatcher(registry.DefaultPatchOptions()),
		log.New(io.Discard, "", 0),
	)
	history := store.NewMemoryStore(10, 0)
	return NewRunner(service, history, path), history, path
}

func TestRunnerRunOnce(t *testing.T) {
	runner, history, path := newTestRunner(t, &stubResolver{})

	report, err := runner.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.ID == "" {
		t.Fatal("expected a run id")
	}
	if report.SensorCount != 1 {
		t.Fatalf("expected 1 sensor, got %d", report.SensorCount)
	}
	if report.Error != "" {
		t.Fatalf("unexpected report error: %q", report.Error)
	}

	latest, err := history.Latest(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.ID != report.ID {
		t.Fatalf("expected report %q in history, got %q", report.ID, latest.ID)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(raw), "latitude: 59.3293") {
		t.Fatalf("expected patched registry, got:\n%s", raw)
	}
}

func TestRunnerRefusesOverlappingRuns(t *testing.T) {
	resolver := &stubResolver{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	runner, history, path := newTestRunner(t, resolver)

	done := make(chan error, 1)
	go func() {
		_, err := runner.RunOnce(context.Background())
		done <- err
	}()

	// Wait until the first run holds the lock inside resolution.
	<-resolver.entered

	if _, err := runner.RunOnce(context.Background()); !errors.Is(err, ErrSyncInProgress) {
		t.Fatalf("expected ErrSyncInProgress, got %v", err)
	}

	close(resolver.release)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error from first run: %v", err)
	}

	// The refused attempt must not leave a report behind.
	reports, err := history.Recent(path, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected a single recorded run, got %d", len(reports))
	}
}

func TestRunnerRecordsFailedRuns(t *testing.T) {
	boom := errors.New("station offline")
	runner, history, path := newTestRunner(t, &stubResolver{err: boom})

	_, err := runner.RunOnce(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected resolver error, got %v", err)
	}

	latest, err := history.Latest(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.Error == "" || !strings.Contains(latest.Error, "station offline") {
		t.Fatalf("expected failure recorded, got %+v", latest)
	}
	if latest.SensorCount != 0 {
		t.Fatalf("expected no sensors counted, got %d", latest.SensorCount)
	}
}
