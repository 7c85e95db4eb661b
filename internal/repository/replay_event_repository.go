package repository

import (
	"database/sql"

	"watchlog/internal/identity"
	"watchlog/internal/models"
	"watchlog/internal/timeutil"
)

const eventColumns = `id, title_id, watch_date, episode, season, duration, progress, rating, notes, created_at, updated_at`

// ReplayEventRepository handles replay-event database operations. It is
// storage only: keeping the owning title's replay_count in step with event
// mutations is the replay-log service's job.
type ReplayEventRepository struct {
	db dbtx
}

// NewReplayEventRepository creates a new ReplayEventRepository
func NewReplayEventRepository(sqliteDB *SQLiteDB) *ReplayEventRepository {
	return &ReplayEventRepository{db: sqliteDB.db}
}

// ListByTitle retrieves a title's replay events ordered by watch date
// descending. limit <= 0 disables pagination.
func (r *ReplayEventRepository) ListByTitle(titleID string, limit, offset int) ([]models.ReplayEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM replay_events WHERE title_id = ? ORDER BY watch_date DESC, rowid DESC`
	params := []any{titleID}

	if limit > 0 {
		query += ` LIMIT ?`
		params = append(params, limit)
		if offset > 0 {
			query += ` OFFSET ?`
			params = append(params, offset)
		}
	}

	rows, err := r.db.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.ReplayEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

// ListAll retrieves every replay event ordered by watch date descending, each
// joined with a snapshot of its title for presentation. Events whose title
// was deleted are still listed, without the snapshot.
func (r *ReplayEventRepository) ListAll(limit, offset int) ([]models.ReplayEventWithTitle, error) {
	query := `
		SELECT e.id, e.title_id, e.watch_date, e.episode, e.season, e.duration,
		       e.progress, e.rating, e.notes, e.created_at, e.updated_at,
		       t.title, t.poster_path, t.kind
		FROM replay_events e
		LEFT JOIN titles t ON e.title_id = t.id
		ORDER BY e.watch_date DESC, e.rowid DESC
	`
	var params []any

	if limit > 0 {
		query += ` LIMIT ?`
		params = append(params, limit)
		if offset > 0 {
			query += ` OFFSET ?`
			params = append(params, offset)
		}
	}

	rows, err := r.db.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.ReplayEventWithTitle
	for rows.Next() {
		var (
			item       models.ReplayEventWithTitle
			watchDate  sql.NullString
			rating     sql.NullFloat64
			notes      sql.NullString
			titleName  sql.NullString
			posterPath sql.NullString
			kind       sql.NullString
		)
		err := rows.Scan(
			&item.ID, &item.TitleID, &watchDate, &item.Episode, &item.Season, &item.Duration,
			&item.Progress, &rating, &notes, &item.CreatedAt, &item.UpdatedAt,
			&titleName, &posterPath, &kind,
		)
		if err != nil {
			return nil, err
		}
		item.WatchDate = watchDate.String
		if rating.Valid {
			item.Rating = &rating.Float64
		}
		item.Notes = notes.String
		if titleName.Valid {
			item.Title = &models.TitleSnapshot{
				ID:         item.TitleID,
				Name:       titleName.String,
				PosterPath: posterPath.String,
				Kind:       models.MediaKind(kind.String),
			}
		}
		events = append(events, item)
	}
	return events, rows.Err()
}

// GetByID retrieves a replay event by its id. Returns nil when no such event
// exists.
func (r *ReplayEventRepository) GetByID(id string) (*models.ReplayEvent, error) {
	row := r.db.QueryRow(`SELECT `+eventColumns+` FROM replay_events WHERE id = ?`, id)
	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

// GetLatestForTitle retrieves the most recently added event for a title, or
// nil when the title has none.
func (r *ReplayEventRepository) GetLatestForTitle(titleID string) (*models.ReplayEvent, error) {
	row := r.db.QueryRow(`
		SELECT `+eventColumns+` FROM replay_events
		WHERE title_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, titleID)
	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return event, nil
}

// Insert creates a new replay event row.
func (r *ReplayEventRepository) Insert(form *models.ReplayEventForm) (*models.ReplayEvent, error) {
	if form.TitleID == "" {
		return nil, &ValidationError{Field: "title_id", Reason: "must not be empty"}
	}
	if form.WatchDate == "" {
		return nil, &ValidationError{Field: "watch_date", Reason: "must not be empty"}
	}
	if form.Progress < 0 || form.Progress > 1 {
		return nil, &ValidationError{Field: "progress", Reason: "must be between 0.0 and 1.0"}
	}
	if form.Rating != nil && (*form.Rating < 0 || *form.Rating > 10) {
		return nil, &ValidationError{Field: "rating", Reason: "must be between 0 and 10"}
	}

	now := timeutil.Timestamp()
	event := &models.ReplayEvent{
		ID:        identity.NewID(),
		TitleID:   form.TitleID,
		WatchDate: form.WatchDate,
		Episode:   form.Episode,
		Season:    form.Season,
		Duration:  form.Duration,
		Progress:  form.Progress,
		Rating:    form.Rating,
		Notes:     form.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := r.db.Exec(`
		INSERT INTO replay_events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID, event.TitleID, event.WatchDate, event.Episode, event.Season,
		event.Duration, event.Progress, event.Rating, nullString(event.Notes),
		event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// Update rewrites a replay event's attributes and refreshes updated_at.
// Updating a nonexistent id returns ErrNotFound without writing.
func (r *ReplayEventRepository) Update(event *models.ReplayEvent) (*models.ReplayEvent, error) {
	if event.Rating != nil && (*event.Rating < 0 || *event.Rating > 10) {
		return nil, &ValidationError{Field: "rating", Reason: "must be between 0 and 10"}
	}

	now := timeutil.Timestamp()
	result, err := r.db.Exec(`
		UPDATE replay_events SET
			watch_date = ?, episode = ?, season = ?, duration = ?,
			progress = ?, rating = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`,
		event.WatchDate, event.Episode, event.Season, event.Duration,
		event.Progress, event.Rating, nullString(event.Notes), now,
		event.ID,
	)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	updated := *event
	updated.UpdatedAt = now
	return &updated, nil
}

// Delete removes a replay event row. The caller must have read the event's
// title_id beforehand so the title's aggregates can be recomputed afterwards.
func (r *ReplayEventRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM replay_events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountForTitle returns the number of replay events referencing a title.
func (r *ReplayEventRepository) CountForTitle(titleID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM replay_events WHERE title_id = ?`, titleID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CountAll returns the total number of replay events.
func (r *ReplayEventRepository) CountAll() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM replay_events`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func scanEvent(row rowScanner) (*models.ReplayEvent, error) {
	var (
		e         models.ReplayEvent
		watchDate sql.NullString
		rating    sql.NullFloat64
		notes     sql.NullString
	)
	err := row.Scan(
		&e.ID, &e.TitleID, &watchDate, &e.Episode, &e.Season, &e.Duration,
		&e.Progress, &rating, &notes, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.WatchDate = watchDate.String
	if rating.Valid {
		e.Rating = &rating.Float64
	}
	e.Notes = notes.String
	return &e, nil
}
