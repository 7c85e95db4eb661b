package service

import (
	"fmt"

	"github.com/rs/zerolog"

	"watchlog/internal/models"
	"watchlog/internal/repository"
)

// LibraryService is the reconciliation facade callers go through for
// cross-entity title workflows.
type LibraryService struct {
	titleRepo *repository.TitleRepository
	eventRepo *repository.ReplayEventRepository
	statsRepo *repository.StatisticsRepository
	replayLog *ReplayLogService
	logger    zerolog.Logger
}

// NewLibraryService creates a new LibraryService
func NewLibraryService(
	titleRepo *repository.TitleRepository,
	eventRepo *repository.ReplayEventRepository,
	statsRepo *repository.StatisticsRepository,
	replayLog *ReplayLogService,
	logger zerolog.Logger,
) *LibraryService {
	return &LibraryService{
		titleRepo: titleRepo,
		eventRepo: eventRepo,
		statsRepo: statsRepo,
		replayLog: replayLog,
		logger:    logger.With().Str("component", "library").Logger(),
	}
}

// ListTitles returns titles ordered by date_updated descending.
func (s *LibraryService) ListTitles(status models.WatchStatus, limit, offset int) ([]models.Title, error) {
	return s.titleRepo.List(status, limit, offset)
}

// GetTitle returns a title by id, or nil when absent.
func (s *LibraryService) GetTitle(id string) (*models.Title, error) {
	return s.titleRepo.GetByID(id)
}

// CheckExisting reports whether a title with the given metadata-provider id
// is already in the catalog.
func (s *LibraryService) CheckExisting(externalID int64) (*models.Title, error) {
	return s.titleRepo.GetByExternalID(externalID)
}

// AddTitle inserts a new title.
func (s *LibraryService) AddTitle(form *models.TitleForm) (*models.Title, error) {
	return s.titleRepo.Insert(form)
}

// UpdateTitle applies a plain title edit without touching replay history.
func (s *LibraryService) UpdateTitle(id string, form *models.TitleForm) (*models.Title, error) {
	return s.titleRepo.Update(id, form)
}

// DeleteTitle removes a title. Replay events are deliberately left in place;
// whether orphans should be cleaned up is an open policy question and the
// listing layer tolerates them.
func (s *LibraryService) DeleteTitle(id string) error {
	return s.titleRepo.Delete(id)
}

// UpdateTitleAndSyncLatestEvent applies a title update and, when the edit
// carries a personal rating, mirrors rating and notes onto the title's most
// recently added replay event. It only ever updates an existing event; a
// title edit never fabricates replay history. If the title update fails the
// sync step is not attempted.
func (s *LibraryService) UpdateTitleAndSyncLatestEvent(id string, form *models.TitleForm) (*models.Title, error) {
	updated, err := s.titleRepo.Update(id, form)
	if err != nil {
		return nil, err
	}

	if form.PersonalRating != nil {
		latest, err := s.eventRepo.GetLatestForTitle(id)
		if err != nil {
			return nil, fmt.Errorf("title updated but event lookup failed: %w", err)
		}
		if latest != nil {
			latest.Rating = form.PersonalRating
			latest.Notes = form.Notes
			if _, err := s.replayLog.UpdateEvent(latest); err != nil {
				return nil, fmt.Errorf("title updated but event sync failed: %w", err)
			}
			s.logger.Debug().Str("title_id", id).Str("event_id", latest.ID).
				Msg("synced rating to latest replay event")
		}
	}

	return updated, nil
}

// Statistics returns catalog summary figures.
func (s *LibraryService) Statistics() (*models.Statistics, error) {
	return s.statsRepo.Get()
}
