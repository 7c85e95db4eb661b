package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"

	"watchlog/internal/service"
	"watchlog/internal/timeutil"
)

// TelegramBot surfaces the watch catalog over Telegram: on-demand commands
// plus the scheduled daily digest of upcoming episodes.
type TelegramBot struct {
	bot        *tele.Bot
	chatID     int64
	reminders  *service.ReminderService
	library    *service.LibraryService
	backupSvc  *service.BackupService
	digestDays int
	logger     zerolog.Logger
}

// NewTelegramBot creates and wires a new TelegramBot
func NewTelegramBot(
	token string,
	chatID int64,
	reminders *service.ReminderService,
	library *service.LibraryService,
	backupSvc *service.BackupService,
	logger zerolog.Logger,
) (*TelegramBot, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	t := &TelegramBot{
		bot:        bot,
		chatID:     chatID,
		reminders:  reminders,
		library:    library,
		backupSvc:  backupSvc,
		digestDays: 7,
		logger:     logger.With().Str("component", "telegram").Logger(),
	}
	t.registerHandlers()
	return t, nil
}

func (t *TelegramBot) registerHandlers() {
	t.bot.Handle("/upcoming", func(c tele.Context) error {
		groups, err := t.reminders.UpcomingGrouped(t.digestDays)
		if err != nil {
			return c.Send(fmt.Sprintf("Failed to load reminders: %v", err))
		}
		return c.Send(FormatDigest(groups), tele.ModeHTML)
	})

	t.bot.Handle("/stats", func(c tele.Context) error {
		stats, err := t.library.Statistics()
		if err != nil {
			return c.Send(fmt.Sprintf("Failed to load statistics: %v", err))
		}

		var sb strings.Builder
		sb.WriteString("<b>Catalog</b>\n")
		sb.WriteString(fmt.Sprintf("Titles: %d\n", stats.TotalTitles))
		sb.WriteString(fmt.Sprintf("Replays logged: %d\n", stats.TotalReplays))
		if stats.AvgPersonalRate > 0 {
			sb.WriteString(fmt.Sprintf("Average rating: %.1f\n", stats.AvgPersonalRate))
		}
		for status, count := range stats.ByStatus {
			sb.WriteString(fmt.Sprintf("  %s: %d\n", status, count))
		}
		if lastBackup, err := t.backupSvc.LastBackupTime(); err == nil && !lastBackup.IsZero() {
			sb.WriteString(fmt.Sprintf("Last backup: %s", lastBackup.Format("2006-01-02 15:04")))
		}
		return c.Send(sb.String(), tele.ModeHTML)
	})
}

// SendDailyDigest sends the upcoming-episodes digest to the configured chat.
func (t *TelegramBot) SendDailyDigest() error {
	groups, err := t.reminders.UpcomingGrouped(t.digestDays)
	if err != nil {
		return fmt.Errorf("failed to build digest: %w", err)
	}

	_, err = t.bot.Send(tele.ChatID(t.chatID), FormatDigest(groups), tele.ModeHTML)
	if err != nil {
		return fmt.Errorf("failed to send digest: %w", err)
	}
	return nil
}

// Start starts long polling (blocking)
func (t *TelegramBot) Start() {
	t.logger.Info().Int64("chat_id", t.chatID).Msg("telegram bot started")
	t.bot.Start()
}

// Stop stops the bot
func (t *TelegramBot) Stop() {
	t.bot.Stop()
}

// FormatDigest formats grouped reminders into the digest message. Exported
// for testing.
func FormatDigest(groups []service.ReminderGroup) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📺 <b>Upcoming episodes</b> (%s)\n\n", timeutil.Now().Format("2006-01-02")))

	if len(groups) == 0 {
		sb.WriteString("Nothing airing in the next few days 🎬")
		return sb.String()
	}

	for gi, group := range groups {
		sb.WriteString(fmt.Sprintf("<b>%s</b>\n", group.Date))
		for _, item := range group.Items {
			sb.WriteString(fmt.Sprintf("  • %s S%02dE%02d", item.Name, item.SeasonNumber, item.EpisodeNumber))
			if item.EpisodeName != "" {
				sb.WriteString(": " + item.EpisodeName)
			}
			sb.WriteString("\n")
		}
		if gi < len(groups)-1 {
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
