package service

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"watchlog/internal/models"
	"watchlog/internal/repository"
	"watchlog/internal/timeutil"
	"watchlog/internal/tmdb"
)

const defaultReminderRange = 7 // days

// EpisodeReminder is an upcoming episode for a series being watched.
type EpisodeReminder struct {
	TitleID       string `json:"title_id"`
	ExternalID    int64  `json:"external_id"`
	Name          string `json:"title"`
	PosterPath    string `json:"poster_path,omitempty"`
	AirDate       string `json:"air_date"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	EpisodeName   string `json:"episode_name,omitempty"`
	Overview      string `json:"overview,omitempty"`
}

// ReminderGroup bundles a day's reminders for display.
type ReminderGroup struct {
	Date  string            `json:"date"`
	Items []EpisodeReminder `json:"items"`
}

// ReminderService finds upcoming episodes for series the user is watching by
// asking the metadata provider for each one's next episode to air.
type ReminderService struct {
	titleRepo  *repository.TitleRepository
	tmdbClient *tmdb.Client
	logger     zerolog.Logger
}

// NewReminderService creates a new ReminderService
func NewReminderService(titleRepo *repository.TitleRepository, tmdbClient *tmdb.Client, logger zerolog.Logger) *ReminderService {
	return &ReminderService{
		titleRepo:  titleRepo,
		tmdbClient: tmdbClient,
		logger:     logger.With().Str("component", "reminder").Logger(),
	}
}

// Upcoming returns episodes airing within the next N days for series with
// status watching and a known external id, sorted by air date. Lookup
// failures for individual series are logged and skipped so one flaky fetch
// does not empty the whole list.
func (s *ReminderService) Upcoming(days int) ([]EpisodeReminder, error) {
	if days <= 0 {
		days = defaultReminderRange
	}

	watching, err := s.titleRepo.List(models.StatusWatching, 0, 0)
	if err != nil {
		return nil, err
	}

	var reminders []EpisodeReminder
	for _, title := range watching {
		if title.Kind != models.KindSeries || title.ExternalID == nil {
			continue
		}

		details, err := s.tmdbClient.GetTVDetails(*title.ExternalID)
		if err != nil {
			s.logger.Warn().Err(err).Str("title", title.Name).Msg("failed to fetch TV details")
			continue
		}

		next := details.NextEpisodeToAir
		if next == nil || next.AirDate == "" {
			continue
		}
		if !s.withinRange(next.AirDate, days) {
			continue
		}

		reminders = append(reminders, EpisodeReminder{
			TitleID:       title.ID,
			ExternalID:    *title.ExternalID,
			Name:          title.Name,
			PosterPath:    title.PosterPath,
			AirDate:       next.AirDate,
			SeasonNumber:  next.SeasonNumber,
			EpisodeNumber: next.EpisodeNumber,
			EpisodeName:   next.Name,
			Overview:      next.Overview,
		})
	}

	sort.Slice(reminders, func(i, j int) bool {
		if reminders[i].AirDate != reminders[j].AirDate {
			return reminders[i].AirDate < reminders[j].AirDate
		}
		return reminders[i].Name < reminders[j].Name
	})

	return reminders, nil
}

// UpcomingGrouped returns the upcoming reminders bucketed by air date.
func (s *ReminderService) UpcomingGrouped(days int) ([]ReminderGroup, error) {
	reminders, err := s.Upcoming(days)
	if err != nil {
		return nil, err
	}

	var groups []ReminderGroup
	for _, reminder := range reminders {
		if len(groups) == 0 || groups[len(groups)-1].Date != reminder.AirDate {
			groups = append(groups, ReminderGroup{Date: reminder.AirDate})
		}
		last := len(groups) - 1
		groups[last].Items = append(groups[last].Items, reminder)
	}
	return groups, nil
}

// withinRange reports whether airDate falls inside [today, today+days].
func (s *ReminderService) withinRange(airDate string, days int) bool {
	target, err := time.Parse("2006-01-02", airDate)
	if err != nil {
		return false
	}

	now := timeutil.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := today.AddDate(0, 0, days)

	return !target.Before(today) && !target.After(end)
}
