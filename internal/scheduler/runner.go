package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ltumat/AirQualityPrediction/internal/registry"
	"github.com/ltumat/AirQualityPrediction/internal/store"
)

// ErrSyncInProgress is returned when a run is requested while another one
// still holds the registry.
var ErrSyncInProgress = errors.New("sync already in progress")

// Runner executes coordinate syncs strictly one at a time and records every
// outcome in the run history. The registry document is patched in place, so
// overlapping runs are refused rather than queued.
type Runner struct {
	mu      sync.Mutex
	service *registry.Service
	history *store.MemoryStore
	file    string
}

// NewRunner creates a Runner bound to one registry file.
func NewRunner(service *registry.Service, history *store.MemoryStore, file string) *Runner {
	return &Runner{
		service: service,
		history: history,
		file:    file,
	}
}

// RunOnce executes a single sync and records its report. Concurrent callers
// get ErrSyncInProgress instead of waiting.
func (r *Runner) RunOnce(ctx context.Context) (store.RunReport, error) {
	if !r.mu.TryLock() {
		return store.RunReport{}, ErrSyncInProgress
	}
	defer r.mu.Unlock()

	report := store.RunReport{
		ID:        uuid.NewString(),
		File:      r.file,
		StartedAt: time.Now().UTC(),
	}

	sensors, err := r.service.Sync(ctx, r.file)
	report.DurationMS = time.Since(report.StartedAt).Milliseconds()
	if err != nil {
		report.Error = err.Error()
		r.history.Record(report)
		return report, err
	}

	report.SensorCount = len(sensors)
	r.history.Record(report)
	return report, nil
}
