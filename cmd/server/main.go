package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"watchlog/internal/handler"
	"watchlog/internal/notify"
	"watchlog/internal/repository"
	"watchlog/internal/service"
	"watchlog/internal/tmdb"
)

// Config holds the application configuration
type Config struct {
	TMDBAPIKey       string
	TMDBLanguage     string
	TelegramBotToken string
	TelegramChatID   int64
	DBPath           string
	BackupDir        string
	DigestTime       string // "HH:MM"
	ListenAddr       string
	APIToken         string
}

func main() {
	digestMode := flag.Bool("digest", false, "Send the daily digest and exit")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()
	config := loadConfig(logger)

	db, err := repository.NewSQLiteDB(config.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database schema")
	}

	titleRepo := repository.NewTitleRepository(db)
	eventRepo := repository.NewReplayEventRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)

	tmdbClient := tmdb.NewClient(config.TMDBAPIKey, config.TMDBLanguage)

	recalc := service.NewRecalculator(titleRepo, eventRepo)
	replayLog := service.NewReplayLogService(eventRepo, recalc)
	library := service.NewLibraryService(titleRepo, eventRepo, statsRepo, replayLog, logger)
	reminders := service.NewReminderService(titleRepo, tmdbClient, logger)
	backupSvc := service.NewBackupService(config.DBPath, config.BackupDir, logger)

	var bot *notify.TelegramBot
	if config.TelegramBotToken != "" && config.TelegramChatID != 0 {
		bot, err = notify.NewTelegramBot(config.TelegramBotToken, config.TelegramChatID, reminders, library, backupSvc, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create telegram bot")
		}
	}

	if *digestMode {
		if bot == nil {
			logger.Fatal().Msg("digest mode requires TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
		}
		if err := bot.SendDailyDigest(); err != nil {
			logger.Fatal().Err(err).Msg("failed to send daily digest")
		}
		logger.Info().Msg("daily digest sent")
		return
	}

	var digestSender service.DigestSender
	if bot != nil {
		digestSender = bot
	}
	scheduler := service.NewScheduler(digestSender, backupSvc, config.DigestTime, logger)
	scheduler.Start()

	if bot != nil {
		go bot.Start()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	httpHandler := handler.NewHTTPHandler(library, replayLog, reminders, backupSvc, tmdbClient, config.APIToken)
	httpHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:    config.ListenAddr,
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", config.ListenAddr).Msg("watchlog server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutting down")
	scheduler.Stop()
	if bot != nil {
		bot.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown failed")
	}
}

// loadConfig loads configuration from environment variables
func loadConfig(logger zerolog.Logger) *Config {
	chatID, _ := strconv.ParseInt(getEnv("TELEGRAM_CHAT_ID", "0"), 10, 64)

	config := &Config{
		TMDBAPIKey:       getEnv("TMDB_API_KEY", ""),
		TMDBLanguage:     getEnv("TMDB_LANGUAGE", "en-US"),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   chatID,
		DBPath:           getEnv("DB_PATH", "watchlog.db"),
		BackupDir:        getEnv("BACKUP_DIR", "backups"),
		DigestTime:       getEnv("DIGEST_TIME", "08:00"),
		ListenAddr:       getEnv("LISTEN_ADDR", ":8080"),
		APIToken:         getEnv("API_TOKEN", ""),
	}

	if config.TMDBAPIKey == "" {
		logger.Warn().Msg("TMDB_API_KEY not set, metadata lookups will fail")
	}

	return config
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
