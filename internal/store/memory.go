package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/climate-advisory/internal/analysis"
	"github.com/i474232898/climate-advisory/internal/report"
	"github.com/i474232898/climate-advisory/internal/weather"
)

var (
	// ErrNotFound is returned when a session holds no report.
	ErrNotFound = errors.New("no report for session")
)

// Session is one caller's conversation state.
type Session struct {
	ID        string
	Report    *report.Report
	UpdatedAt time.Time
}

// MemoryStore is the concurrency-safe advisory context. Region tables and
// analyses are shared across sessions; the detailed report is per session.
type MemoryStore struct {
	mu sync.RWMutex

	// key: weather.Key(region, period)
	tables   map[string]*weather.Table
	analyses map[string]*analysis.Summary

	// key: session ID
	sessions map[string]*Session

	// retention configuration
	maxSessions int           // max number of sessions kept (0 = unlimited)
	maxAge      time.Duration // sessions idle longer are evicted (0 = unlimited)

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional session limits.
// If maxSessions is <= 0, it is treated as unlimited.
func NewMemoryStore(maxSessions int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		tables:      make(map[string]*weather.Table),
		analyses:    make(map[string]*analysis.Summary),
		sessions:    make(map[string]*Session),
		maxSessions: maxSessions,
		maxAge:      maxAge,
		now:         time.Now,
	}
}

// GetTable returns a cached table.
func (s *MemoryStore) GetTable(key string) (*weather.Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[key]
	return t, ok
}

// PutTable stores t unless the key is already set, and returns the stored table.
func (s *MemoryStore) PutTable(key string, t *weather.Table) *weather.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.tables[key]; ok {
		return existing
	}
	s.tables[key] = t
	return t
}

// GetAnalysis returns a cached summary.
func (s *MemoryStore) GetAnalysis(key string) (*analysis.Summary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.analyses[key]
	return a, ok
}

// PutAnalysis stores a unless the key is already set, and returns the stored summary.
func (s *MemoryStore) PutAnalysis(key string, a *analysis.Summary) *analysis.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.analyses[key]; ok {
		return existing
	}
	s.analyses[key] = a
	return a
}

// SaveReport replaces the session's report and enforces retention.
func (s *MemoryStore) SaveReport(sessionID string, r *report.Report) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = &Session{ID: sessionID, Report: r, UpdatedAt: now}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := now.Add(-s.maxAge)
		for id, sess := range s.sessions {
			if sess.UpdatedAt.Before(cutoff) {
				delete(s.sessions, id)
			}
		}
	}

	// Enforce retention by count, oldest first.
	if s.maxSessions > 0 && len(s.sessions) > s.maxSessions {
		ordered := make([]*Session, 0, len(s.sessions))
		for _, sess := range s.sessions {
			ordered = append(ordered, sess)
		}
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].UpdatedAt.Before(ordered[j].UpdatedAt) })
		for _, sess := range ordered[:len(ordered)-s.maxSessions] {
			delete(s.sessions, sess.ID)
		}
	}
}

// LatestReport returns the session's report.
func (s *MemoryStore) LatestReport(sessionID string) (*report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.Report == nil {
		return nil, ErrNotFound
	}
	if s.maxAge > 0 && sess.UpdatedAt.Before(s.now().Add(-s.maxAge)) {
		return nil, ErrNotFound
	}
	return sess.Report, nil
}

// SessionCount returns the number of retained sessions.
func (s *MemoryStore) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
