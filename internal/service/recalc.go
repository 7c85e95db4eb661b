package service

import (
	"fmt"

	"watchlog/internal/repository"
)

// Recalculator recomputes a title's replay-derived aggregates from the
// current set of its replay events. It runs after every replay-event
// mutation; skipping it would leave replay_count stale.
type Recalculator struct {
	titleRepo *repository.TitleRepository
	eventRepo *repository.ReplayEventRepository
}

// NewRecalculator creates a new Recalculator
func NewRecalculator(titleRepo *repository.TitleRepository, eventRepo *repository.ReplayEventRepository) *Recalculator {
	return &Recalculator{titleRepo: titleRepo, eventRepo: eventRepo}
}

// RefreshTitle sets the title's replay_count to the current event count and
// stamps its technical updated_at marker. Idempotent, and a no-op when the
// title no longer exists.
func (r *Recalculator) RefreshTitle(titleID string) error {
	count, err := r.eventRepo.CountForTitle(titleID)
	if err != nil {
		return fmt.Errorf("failed to count replay events: %w", err)
	}
	if err := r.titleRepo.SetReplayStats(titleID, count); err != nil {
		return fmt.Errorf("failed to write replay stats: %w", err)
	}
	return nil
}
