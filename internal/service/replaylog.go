package service

import (
	"fmt"

	"watchlog/internal/models"
	"watchlog/internal/repository"
)

// ReplayLogService owns the replay-event write workflow: every add, update,
// and delete is an explicit two-step operation: write the event, then
// recompute the owning title's aggregates. Call sites never touch the event
// repository directly for writes.
type ReplayLogService struct {
	eventRepo *repository.ReplayEventRepository
	recalc    *Recalculator
}

// NewReplayLogService creates a new ReplayLogService
func NewReplayLogService(eventRepo *repository.ReplayEventRepository, recalc *Recalculator) *ReplayLogService {
	return &ReplayLogService{eventRepo: eventRepo, recalc: recalc}
}

// AddEvent records a watch occurrence and refreshes the title's aggregates.
func (s *ReplayLogService) AddEvent(form *models.ReplayEventForm) (*models.ReplayEvent, error) {
	event, err := s.eventRepo.Insert(form)
	if err != nil {
		return nil, err
	}
	if err := s.recalc.RefreshTitle(event.TitleID); err != nil {
		return nil, fmt.Errorf("event recorded but aggregate refresh failed: %w", err)
	}
	return event, nil
}

// UpdateEvent rewrites an event and refreshes the title's aggregates.
func (s *ReplayLogService) UpdateEvent(event *models.ReplayEvent) (*models.ReplayEvent, error) {
	updated, err := s.eventRepo.Update(event)
	if err != nil {
		return nil, err
	}
	if err := s.recalc.RefreshTitle(updated.TitleID); err != nil {
		return nil, fmt.Errorf("event updated but aggregate refresh failed: %w", err)
	}
	return updated, nil
}

// DeleteEvent removes an event and refreshes the title's aggregates. The
// event's title_id is read before the row goes away since recalculation
// needs it afterwards.
func (s *ReplayLogService) DeleteEvent(id string) error {
	event, err := s.eventRepo.GetByID(id)
	if err != nil {
		return err
	}
	if event == nil {
		return repository.ErrNotFound
	}

	if err := s.eventRepo.Delete(id); err != nil {
		return err
	}
	if err := s.recalc.RefreshTitle(event.TitleID); err != nil {
		return fmt.Errorf("event deleted but aggregate refresh failed: %w", err)
	}
	return nil
}

// ListByTitle returns a title's replay events, most recent watch first.
func (s *ReplayLogService) ListByTitle(titleID string, limit, offset int) ([]models.ReplayEvent, error) {
	return s.eventRepo.ListByTitle(titleID, limit, offset)
}

// ListAll returns every replay event with title snapshots, most recent watch
// first.
func (s *ReplayLogService) ListAll(limit, offset int) ([]models.ReplayEventWithTitle, error) {
	return s.eventRepo.ListAll(limit, offset)
}

// GetEvent returns a replay event by id, or nil when absent.
func (s *ReplayLogService) GetEvent(id string) (*models.ReplayEvent, error) {
	return s.eventRepo.GetByID(id)
}

// CountForTitle returns the number of events referencing a title.
func (s *ReplayLogService) CountForTitle(titleID string) (int, error) {
	return s.eventRepo.CountForTitle(titleID)
}
