// Package stats persists the booth's lifetime usage counters.
package stats

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Stats mirrors the on-disk counter record. The three counters always move
// together; one successful analysis advances each by exactly one.
type Stats struct {
	PhotosProcessed int64 `json:"photosProcessed"`
	FramesApplied   int64 `json:"framesApplied"`
	AIAnalyses      int64 `json:"aiAnalyses"`
}

// Store reads and writes the single counter record at a fixed path.
type Store struct {
	path   string
	logger *zap.Logger

	mu      sync.Mutex
	current Stats
}

// NewStore builds a store around the given file path. Call Load before
// first use to pick up counters from a previous run.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger.Named("stats")}
}

// Load reads the persisted record. A missing or malformed file yields
// zeroed counters rather than an error.
func (s *Store) Load() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("stats file unreadable, starting from zero", zap.Error(err))
		}
		s.current = Stats{}
		return s.current
	}

	var loaded Stats
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.Warn("stats file malformed, starting from zero", zap.Error(err))
		s.current = Stats{}
		return s.current
	}

	s.current = loaded
	return loaded
}

// Save overwrites the persisted record.
func (s *Store) Save(stats Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = stats
	return s.persistLocked()
}

// Increment advances every counter by one and persists the record. The
// increment is applied atomically; no partial update is observable even
// when persistence fails.
func (s *Store) Increment() (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.PhotosProcessed++
	s.current.FramesApplied++
	s.current.AIAnalyses++

	err := s.persistLocked()
	return s.current, err
}

// Current returns the in-memory counters.
func (s *Store) Current() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Store) persistLocked() error {
	data, err := json.Marshal(s.current)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, data, 0o644)
}
