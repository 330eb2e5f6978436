package runs

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/mcp-training/cleaningrobot/robot/service"
)

var (
	ErrRunNotFound      = errors.New("run not found")
	ErrRunAlreadyExists = errors.New("run already exists")
	ErrNilRun           = errors.New("run is nil")
)

// Store keeps finished run results in memory
type Store struct {
	runs map[string]*service.RunResult
	mu   sync.RWMutex
	now  func() time.Time
}

// NewStore creates an empty run store
func NewStore() *Store {
	return &Store{
		runs: make(map[string]*service.RunResult),
		now:  time.Now,
	}
}

// Add stores a run, assigning an ID and creation time when missing
func (s *Store) Add(run *service.RunResult) error {
	if run == nil {
		return ErrNilRun
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(run.ID)
	if _, exists := s.runs[key]; exists {
		return ErrRunAlreadyExists
	}
	s.runs[key] = run
	return nil
}

// Get retrieves a run by ID (case-insensitive)
func (s *Store) Get(id string) (*service.RunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[strings.ToLower(id)]
	if !exists {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// List returns all runs, oldest first
func (s *Store) List() []*service.RunResult {
	s.mu.RLock()
	result := make([]*service.RunResult, 0, len(s.runs))
	for _, run := range s.runs {
		result = append(result, run)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Delete removes a run
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(id)
	if _, exists := s.runs[key]; !exists {
		return ErrRunNotFound
	}
	delete(s.runs, key)
	return nil
}

// CleanupExpired removes runs created more than maxAge ago
func (s *Store) CleanupExpired(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	removed := 0

	for id, run := range s.runs {
		if run.CreatedAt.Before(cutoff) {
			delete(s.runs, id)
			removed++
		}
	}

	return removed
}

// Count returns the number of stored runs
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

var _ service.RunStore = (*Store)(nil)
