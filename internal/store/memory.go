package store

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no runs are recorded for a registry.
	ErrNotFound = errors.New("no runs recorded for registry")
)

// RunReport captures the outcome of one coordinate sync run.
type RunReport struct {
	ID          string    `json:"id"`
	File        string    `json:"file"`
	StartedAt   time.Time `json:"started_at"`
	DurationMS  int64     `json:"duration_ms"`
	SensorCount int       `json:"sensor_count"`
	Error       string    `json:"error,omitempty"`
}

// RunHistory holds a time-ordered list of run reports for one registry file.
type RunHistory struct {
	Reports []RunReport
}

// MemoryStore is a concurrency-safe in-memory run-history store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: registry file path, value: history
	data map[string]*RunHistory

	// retention configuration
	maxHistory int           // max number of reports per registry
	maxAge     time.Duration // optional max age for reports
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*RunHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// Record appends a run report for its registry file and enforces retention.
func (s *MemoryStore) Record(report RunReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[report.File]
	if !ok {
		history = &RunHistory{}
		s.data[report.File] = history
	}

	history.Reports = append(history.Reports, report)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Reports) > s.maxHistory {
		over := len(history.Reports) - s.maxHistory
		history.Reports = history.Reports[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Reports); i++ {
			if !history.Reports[i].StartedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			history.Reports = history.Reports[i:]
		}
	}
}

// Latest returns the most recent run report for a registry file.
func (s *MemoryStore) Latest(file string) (RunReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[file]
	if !ok || len(history.Reports) == 0 {
		return RunReport{}, ErrNotFound
	}
	return history.Reports[len(history.Reports)-1], nil
}

// Recent returns up to limit run reports for a registry file, most recent
// first. A limit <= 0 returns the full history.
func (s *MemoryStore) Recent(file string, limit int) ([]RunReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[file]
	if !ok || len(history.Reports) == 0 {
		return nil, ErrNotFound
	}

	n := len(history.Reports)
	if limit > 0 && limit < n {
		n = limit
	}

	result := make([]RunReport, 0, n)
	for i := len(history.Reports) - 1; i >= len(history.Reports)-n; i-- {
		result = append(result, history.Reports[i])
	}

	return result, nil
}
