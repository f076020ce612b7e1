package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/groundwater-monitoring/internal/groundwater"
)

var (
	// ErrNotFound is returned when no report is available for a region.
	ErrNotFound = errors.New("no report for region")
)

// ReportHistory holds the reports of a region ordered by generation time.
type ReportHistory struct {
	Reports []groundwater.Report
}

// MemoryStore is a concurrency-safe in-memory report store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: region name, value: history
	data map[string]*ReportHistory

	maxHistory int           // max number of reports per region
	maxAge     time.Duration // max age of reports; the newest is always kept
	now        func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory or maxAge is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*ReportHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveReport appends a report for its region and enforces retention.
func (s *MemoryStore) SaveReport(report groundwater.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[report.Region]
	if !ok {
		history = &ReportHistory{}
		s.data[report.Region] = history
	}

	history.Reports = append(history.Reports, report)

	if s.maxHistory > 0 && len(history.Reports) > s.maxHistory {
		over := len(history.Reports) - s.maxHistory
		history.Reports = history.Reports[over:]
	}

	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Reports)-1; i++ {
			if !history.Reports[i].GeneratedAt.Before(cutoff) {
				break
			}
		}
		history.Reports = history.Reports[i:]
	}
}

// GetLatest returns the most recent report for a region.
func (s *MemoryStore) GetLatest(regionName string) (groundwater.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[regionName]
	if !ok || len(history.Reports) == 0 {
		return groundwater.Report{}, ErrNotFound
	}
	return history.Reports[len(history.Reports)-1], nil
}

// GetRange returns all reports for a region generated between from and to
// (inclusive).
func (s *MemoryStore) GetRange(regionName string, from, to time.Time) ([]groundwater.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[regionName]
	if !ok || len(history.Reports) == 0 {
		return nil, ErrNotFound
	}

	var result []groundwater.Report
	for _, r := range history.Reports {
		if !r.GeneratedAt.Before(from) && !r.GeneratedAt.After(to) {
			result = append(result, r)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
