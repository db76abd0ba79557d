// internal/common/database/mutate.go
package database

import (
	"context"

	"recruitment-workers/internal/models"
)

// CandidateLocker serialises writers of one candidate.
type CandidateLocker interface {
	WithLock(ctx context.Context, candidateID string, fn func(ctx context.Context) error) error
}

// MutateFunc changes c in place and returns the timeline events to persist.
// Returning no events and a nil error leaves the stored candidate untouched.
type MutateFunc func(c *models.Candidate) ([]models.TimelineEvent, error)

// Mutator runs the lock, load, change, versioned-save cycle every
// candidate write goes through.
type Mutator struct {
	store  CandidateStore
	locker CandidateLocker
}

func NewMutator(store CandidateStore, locker CandidateLocker) *Mutator {
	return &Mutator{store: store, locker: locker}
}

// Mutate returns the candidate as stored after fn ran.
func (m *Mutator) Mutate(ctx context.Context, candidateID string, fn MutateFunc) (*models.Candidate, error) {
	var out *models.Candidate
	err := m.locker.WithLock(ctx, candidateID, func(ctx context.Context) error {
		c, err := m.store.Get(ctx, candidateID)
		if err != nil {
			return err
		}
		loadedAt := c.Version

		events, err := fn(c)
		if err != nil {
			return err
		}
		if len(events) > 0 {
			if err := m.store.Save(ctx, c, loadedAt, events); err != nil {
				return err
			}
		}
		out = c
		return nil
	})
	return out, err
}
