// internal/common/database/memory.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"recruitment-workers/internal/models"
)

// MemoryStore is a CandidateStore held in process. recruitctl loads
// candidate exports into it and the worker tests run against it.
type MemoryStore struct {
	mu         sync.RWMutex
	candidates map[string]*models.Candidate
	events     map[string][]models.TimelineEvent
}

func NewMemoryStore(candidates ...*models.Candidate) *MemoryStore {
	s := &MemoryStore{
		candidates: make(map[string]*models.Candidate),
		events:     make(map[string][]models.TimelineEvent),
	}
	for _, c := range candidates {
		cp := c.Clone()
		if cp.Version == 0 {
			cp.Version = 1
		}
		s.candidates[cp.ID] = cp
		s.events[cp.ID] = append([]models.TimelineEvent(nil), cp.TimelineEvents...)
	}
	return s
}

// LoadCandidatesFile reads a JSON array of candidates, validating each.
func LoadCandidatesFile(path string) ([]*models.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []*models.Candidate
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse candidates %s: %w", path, err)
	}
	for i, c := range out {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates[id]
	if !ok {
		return nil, fmt.Errorf("candidate %s: %w", id, ErrCandidateNotFound)
	}
	cp := c.Clone()
	cp.TimelineEvents = append([]models.TimelineEvent(nil), s.events[id]...)
	return cp, nil
}

func (s *MemoryStore) List(ctx context.Context, filter ListFilter) ([]*models.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := make(map[models.Stage]bool, len(filter.Stages))
	for _, st := range filter.Stages {
		want[st] = true
	}

	s.mu.RLock()
	out := make([]*models.Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		if len(want) > 0 && !want[c.Stage] {
			continue
		}
		out = append(out, c.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, c *models.Candidate, expectedVersion int64, events []models.TimelineEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.candidates[c.ID]
	if !ok {
		return fmt.Errorf("candidate %s: %w", c.ID, ErrCandidateNotFound)
	}
	if current.Version != expectedVersion {
		return fmt.Errorf("candidate %s at version %d: %w", c.ID, expectedVersion, ErrVersionConflict)
	}
	cp := c.Clone()
	cp.Version = expectedVersion + 1
	cp.TimelineEvents = nil
	s.candidates[c.ID] = cp
	s.events[c.ID] = append(s.events[c.ID], events...)
	c.Version = cp.Version
	return nil
}

// Timeline returns the stored events for a candidate, oldest first.
func (s *MemoryStore) Timeline(_ context.Context, candidateID string) ([]models.TimelineEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.TimelineEvent(nil), s.events[candidateID]...), nil
}
