package service

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// DigestSender sends the daily upcoming-episodes digest.
type DigestSender interface {
	SendDailyDigest() error
}

// Scheduler drives the recurring jobs: the daily reminder digest and the
// weekly database backup.
type Scheduler struct {
	digestSender DigestSender
	backupSvc    *BackupService
	digestTime   string // "HH:MM"
	stopChan     chan struct{}
	logger       zerolog.Logger
}

// NewScheduler creates a new Scheduler
func NewScheduler(digestSender DigestSender, backupSvc *BackupService, digestTime string, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		digestSender: digestSender,
		backupSvc:    backupSvc,
		digestTime:   digestTime,
		stopChan:     make(chan struct{}),
		logger:       logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start starts all scheduled jobs
func (s *Scheduler) Start() {
	if s.digestSender != nil {
		go s.runDailyDigest()
	}
	go s.runWeeklyBackup()
	s.logger.Info().Str("digest_time", s.digestTime).Msg("scheduler started")
}

// Stop stops all scheduled jobs
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

func (s *Scheduler) runDailyDigest() {
	for {
		nextRun := s.nextDigestTime()
		duration := time.Until(nextRun)

		s.logger.Info().Time("next_run", nextRun).Msg("daily digest scheduled")

		select {
		case <-time.After(duration):
			if err := s.digestSender.SendDailyDigest(); err != nil {
				s.logger.Error().Err(err).Msg("failed to send daily digest")
			} else {
				s.logger.Info().Msg("daily digest sent")
			}
		case <-s.stopChan:
			return
		}
	}
}

func (s *Scheduler) runWeeklyBackup() {
	for {
		nextRun := s.nextBackupTime()
		duration := time.Until(nextRun)

		s.logger.Info().Time("next_run", nextRun).Msg("weekly backup scheduled")

		select {
		case <-time.After(duration):
			backupPath, err := s.backupSvc.Backup()
			if err != nil {
				s.logger.Error().Err(err).Msg("failed to create backup")
			} else {
				s.logger.Info().Str("path", backupPath).Msg("backup created")
			}
		case <-s.stopChan:
			return
		}
	}
}

// nextDigestTime calculates the next time to send the daily digest
func (s *Scheduler) nextDigestTime() time.Time {
	now := time.Now()

	hour, minute := 8, 0
	if s.digestTime != "" {
		fmt.Sscanf(s.digestTime, "%d:%d", &hour, &minute)
	}

	digestTime := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.After(digestTime) {
		digestTime = digestTime.Add(24 * time.Hour)
	}
	return digestTime
}

// nextBackupTime calculates the next Sunday at 03:00
func (s *Scheduler) nextBackupTime() time.Time {
	now := time.Now()

	daysUntilSunday := (7 - int(now.Weekday())) % 7
	if daysUntilSunday == 0 {
		backupTime := time.Date(now.Year(), now.Month(), now.Day(), 3, 0, 0, 0, now.Location())
		if now.After(backupTime) {
			daysUntilSunday = 7
		}
	}

	nextSunday := now.AddDate(0, 0, daysUntilSunday)
	return time.Date(nextSunday.Year(), nextSunday.Month(), nextSunday.Day(), 3, 0, 0, 0, now.Location())
}
