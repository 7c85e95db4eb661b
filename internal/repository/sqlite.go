package repository

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"watchlog/internal/timeutil"
)

// SQLiteDB wraps the database connection
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection with connection pool settings
func NewSQLiteDB(dbPath string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// SQLite benefits from limited connections due to write locking
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// InitSchema creates the database tables and runs migrations
func (s *SQLiteDB) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS titles (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		original_title TEXT,
		overview TEXT,
		poster_path TEXT,
		backdrop_path TEXT,
		external_id INTEGER,
		external_rating REAL DEFAULT 0.0,
		personal_rating REAL CHECK (personal_rating >= 0 AND personal_rating <= 10),
		status TEXT NOT NULL DEFAULT 'planned' CHECK (status IN ('watching', 'completed', 'planned', 'paused', 'dropped')),
		kind TEXT NOT NULL DEFAULT 'movie' CHECK (kind IN ('movie', 'series')),
		year INTEGER,
		runtime INTEGER,
		genres_json TEXT,
		current_episode INTEGER DEFAULT 0,
		total_episodes INTEGER,
		current_season INTEGER DEFAULT 1,
		total_seasons INTEGER,
		seasons_json TEXT,
		air_status TEXT,
		watch_source TEXT,
		watched_date TEXT,
		notes TEXT,
		replay_count INTEGER DEFAULT 0,
		date_added TEXT,
		date_updated TEXT,
		created_at TEXT,
		updated_at TEXT
	);

	CREATE TABLE IF NOT EXISTS replay_events (
		id TEXT PRIMARY KEY,
		title_id TEXT NOT NULL,
		watch_date TEXT,
		episode INTEGER,
		season INTEGER,
		duration INTEGER,
		progress REAL,
		rating REAL,
		notes TEXT,
		created_at TEXT,
		updated_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_titles_status ON titles(status);
	CREATE INDEX IF NOT EXISTS idx_titles_kind ON titles(kind);
	CREATE INDEX IF NOT EXISTS idx_titles_external_id ON titles(external_id);
	CREATE INDEX IF NOT EXISTS idx_titles_date_updated ON titles(date_updated);
	CREATE INDEX IF NOT EXISTS idx_replay_events_title ON replay_events(title_id);
	CREATE INDEX IF NOT EXISTS idx_replay_events_watch_date ON replay_events(watch_date);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	return s.runMigrations()
}

// runMigrations executes pending database migrations
func (s *SQLiteDB) runMigrations() error {
	// watched_date arrived after the first release; its absence marks a
	// pre-migration database
	var probe sql.NullString
	err := s.db.QueryRow("SELECT watched_date FROM titles LIMIT 1").Scan(&probe)
	if err == nil || err == sql.ErrNoRows {
		return nil
	}

	return s.migrateAddColumns()
}

// migrateAddColumns upgrades older databases by adding any missing columns
// and backfilling timestamps.
func (s *SQLiteDB) migrateAddColumns() error {
	alterCommands := []string{
		"ALTER TABLE titles ADD COLUMN backdrop_path TEXT",
		"ALTER TABLE titles ADD COLUMN external_rating REAL DEFAULT 0.0",
		"ALTER TABLE titles ADD COLUMN personal_rating REAL",
		"ALTER TABLE titles ADD COLUMN seasons_json TEXT",
		"ALTER TABLE titles ADD COLUMN air_status TEXT",
		"ALTER TABLE titles ADD COLUMN watch_source TEXT",
		"ALTER TABLE titles ADD COLUMN watched_date TEXT",
		"ALTER TABLE titles ADD COLUMN replay_count INTEGER DEFAULT 0",
		"ALTER TABLE titles ADD COLUMN date_added TEXT",
		"ALTER TABLE titles ADD COLUMN date_updated TEXT",
	}

	for _, command := range alterCommands {
		if _, err := s.db.Exec(command); err != nil {
			// duplicate column errors mean the column already exists
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return err
		}
	}

	// Rows predating the timestamp columns need non-null values so the
	// date_updated ordering stays total
	now := timeutil.Timestamp()
	_, err := s.db.Exec(`
		UPDATE titles SET
			date_added = COALESCE(date_added, ?),
			date_updated = COALESCE(date_updated, ?),
			created_at = COALESCE(created_at, ?),
			updated_at = COALESCE(updated_at, ?)
		WHERE date_added IS NULL OR date_updated IS NULL OR created_at IS NULL OR updated_at IS NULL
	`, now, now, now, now)
	return err
}
