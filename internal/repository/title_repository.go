package repository

import (
	"database/sql"
	"errors"

	"watchlog/internal/fieldcodec"
	"watchlog/internal/identity"
	"watchlog/internal/models"
	"watchlog/internal/timeutil"
)

type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

const titleColumns = `id, title, original_title, overview, poster_path, backdrop_path,
	external_id, external_rating, personal_rating, status, kind, year, runtime, genres_json,
	current_episode, total_episodes, current_season, total_seasons, seasons_json,
	air_status, watch_source, watched_date, notes, replay_count,
	date_added, date_updated, created_at, updated_at`

// TitleRepository handles title database operations
type TitleRepository struct {
	db   dbtx
	base *sql.DB
}

// NewTitleRepository creates a new TitleRepository
func NewTitleRepository(sqliteDB *SQLiteDB) *TitleRepository {
	return &TitleRepository{db: sqliteDB.db, base: sqliteDB.db}
}

func (r *TitleRepository) BeginTx() (*sql.Tx, error) {
	if r.base == nil {
		return nil, errors.New("title repository: transactions not supported on tx-scoped repo")
	}
	return r.base.Begin()
}

func (r *TitleRepository) WithTx(tx *sql.Tx) *TitleRepository {
	return &TitleRepository{db: tx}
}

// List retrieves titles ordered by date_updated descending, the system's sole
// display order. Ties break on insertion order so the listing is stable. An
// empty status matches everything; limit <= 0 disables pagination.
func (r *TitleRepository) List(status models.WatchStatus, limit, offset int) ([]models.Title, error) {
	query := `SELECT ` + titleColumns + ` FROM titles`
	var params []any

	if status != "" {
		query += ` WHERE status = ?`
		params = append(params, status)
	}

	query += ` ORDER BY date_updated DESC, rowid ASC`

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

	var titles []models.Title
	for rows.Next() {
		title, err := scanTitle(rows)
		if err != nil {
			return nil, err
		}
		titles = append(titles, *title)
	}
	return titles, rows.Err()
}

// GetByID retrieves a title by its id. Returns nil when no such title exists.
func (r *TitleRepository) GetByID(id string) (*models.Title, error) {
	row := r.db.QueryRow(`SELECT `+titleColumns+` FROM titles WHERE id = ?`, id)
	title, err := scanTitle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return title, nil
}

// GetByExternalID retrieves a title by its metadata-provider id, used for
// duplicate checks before insert. Returns nil when no such title exists.
func (r *TitleRepository) GetByExternalID(externalID int64) (*models.Title, error) {
	row := r.db.QueryRow(`SELECT `+titleColumns+` FROM titles WHERE external_id = ?`, externalID)
	title, err := scanTitle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return title, nil
}

// Insert creates a new title. The id and created_at/updated_at are always
// generated here; date_added anchors to the caller's watch date when present,
// otherwise the insert time.
func (r *TitleRepository) Insert(form *models.TitleForm) (*models.Title, error) {
	if form.Name == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if form.Status != "" && !models.ValidStatus(form.Status) {
		return nil, &ValidationError{Field: "status", Reason: "unknown status " + string(form.Status)}
	}
	if form.PersonalRating != nil && (*form.PersonalRating < 0 || *form.PersonalRating > 10) {
		return nil, &ValidationError{Field: "personal_rating", Reason: "must be between 0 and 10"}
	}

	id := identity.NewID()
	now := timeutil.Timestamp()

	title := &models.Title{
		ID:             id,
		Name:           form.Name,
		OriginalName:   form.OriginalName,
		Overview:       form.Overview,
		PosterPath:     form.PosterPath,
		BackdropPath:   form.BackdropPath,
		ExternalID:     form.ExternalID,
		ExternalRating: form.ExternalRating,
		PersonalRating: form.PersonalRating,
		Status:         form.Status,
		Kind:           form.Kind,
		Year:           form.Year,
		Runtime:        form.Runtime,
		Genres:         form.Genres,
		CurrentEpisode: intOrDefault(form.CurrentEpisode, 0),
		TotalEpisodes:  form.TotalEpisodes,
		CurrentSeason:  intOrDefault(form.CurrentSeason, 1),
		TotalSeasons:   form.TotalSeasons,
		Seasons:        form.Seasons,
		AirStatus:      form.AirStatus,
		WatchSource:    form.WatchSource,
		WatchedDate:    form.WatchedDate,
		Notes:          form.Notes,
		ReplayCount:    0,
		DateAdded:      stringOrDefault(form.WatchedDate, now),
		DateUpdated:    now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if title.Status == "" {
		title.Status = models.StatusWatching
	}
	if title.Kind == "" {
		title.Kind = models.KindMovie
	}

	_, err := r.db.Exec(`
		INSERT INTO titles (`+titleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		title.ID, title.Name, nullString(title.OriginalName), nullString(title.Overview),
		nullString(title.PosterPath), nullString(title.BackdropPath),
		title.ExternalID, title.ExternalRating, title.PersonalRating,
		title.Status, title.Kind, title.Year, title.Runtime,
		fieldcodec.Encode(title.Genres),
		title.CurrentEpisode, title.TotalEpisodes, title.CurrentSeason, title.TotalSeasons,
		fieldcodec.Encode(title.Seasons),
		nullString(title.AirStatus), nullString(title.WatchSource), nullString(title.WatchedDate),
		nullString(title.Notes), title.ReplayCount,
		title.DateAdded, title.DateUpdated, title.CreatedAt, title.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return title, nil
}

// Update applies a title edit under the timestamp-precedence rule:
//
//  1. watch date changed and non-empty: date_updated becomes the watch date
//  2. watch date unchanged but season or episode changed: date_updated
//     becomes the current wall-clock time
//  3. neither changed: date_updated keeps its stored value
//
// date_added is re-derived from the watch date input on every update, and
// created_at is never touched. Updating a nonexistent id returns ErrNotFound
// without writing.
func (r *TitleRepository) Update(id string, form *models.TitleForm) (*models.Title, error) {
	if form.Name == "" {
		return nil, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if form.Status != "" && !models.ValidStatus(form.Status) {
		return nil, &ValidationError{Field: "status", Reason: "unknown status " + string(form.Status)}
	}
	if form.PersonalRating != nil && (*form.PersonalRating < 0 || *form.PersonalRating > 10) {
		return nil, &ValidationError{Field: "personal_rating", Reason: "must be between 0 and 10"}
	}

	var (
		storedWatched sql.NullString
		storedSeason  sql.NullInt64
		storedEpisode sql.NullInt64
		storedUpdated sql.NullString
	)
	err := r.db.QueryRow(`
		SELECT watched_date, current_season, current_episode, date_updated
		FROM titles WHERE id = ?
	`, id).Scan(&storedWatched, &storedSeason, &storedEpisode, &storedUpdated)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	now := timeutil.Timestamp()
	newSeason := intOrDefault(form.CurrentSeason, 1)
	newEpisode := intOrDefault(form.CurrentEpisode, 0)

	watchedChanged := form.WatchedDate != storedWatched.String
	progressChanged := int64(newSeason) != storedSeason.Int64 || int64(newEpisode) != storedEpisode.Int64

	var dateUpdated string
	switch {
	case watchedChanged && form.WatchedDate != "":
		// watch-date edits always win and become the update time
		dateUpdated = form.WatchedDate
	case !watchedChanged && progressChanged:
		dateUpdated = now
	default:
		dateUpdated = stringOrDefault(storedUpdated.String, now)
	}

	dateAdded := stringOrDefault(form.WatchedDate, now)

	status := form.Status
	if status == "" {
		status = models.StatusWatching
	}
	kind := form.Kind
	if kind == "" {
		kind = models.KindMovie
	}

	_, err = r.db.Exec(`
		UPDATE titles SET
			title = ?, original_title = ?, overview = ?, poster_path = ?, backdrop_path = ?,
			external_id = ?, external_rating = ?, personal_rating = ?,
			status = ?, kind = ?, year = ?, runtime = ?, genres_json = ?,
			current_episode = ?, total_episodes = ?, current_season = ?, total_seasons = ?,
			seasons_json = ?, air_status = ?, watch_source = ?, watched_date = ?, notes = ?,
			date_added = ?, date_updated = ?, updated_at = ?
		WHERE id = ?
	`,
		form.Name, nullString(form.OriginalName), nullString(form.Overview),
		nullString(form.PosterPath), nullString(form.BackdropPath),
		form.ExternalID, form.ExternalRating, form.PersonalRating,
		status, kind, form.Year, form.Runtime,
		fieldcodec.Encode(form.Genres),
		newEpisode, form.TotalEpisodes, newSeason, form.TotalSeasons,
		fieldcodec.Encode(form.Seasons),
		nullString(form.AirStatus), nullString(form.WatchSource), nullString(form.WatchedDate),
		nullString(form.Notes),
		dateAdded, dateUpdated, now,
		id,
	)
	if err != nil {
		return nil, err
	}

	return r.GetByID(id)
}

// Delete removes a title row. Associated replay events are left in place;
// the all-events listing degrades to events without a title snapshot.
func (r *TitleRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM titles WHERE id = ?`, id)
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

// SetReplayStats writes a recomputed replay count and refreshes the technical
// updated_at marker. A vanished title id is a no-op, not an error.
func (r *TitleRepository) SetReplayStats(id string, replayCount int) error {
	_, err := r.db.Exec(`
		UPDATE titles SET replay_count = ?, updated_at = ? WHERE id = ?
	`, replayCount, timeutil.Timestamp(), id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTitle(row rowScanner) (*models.Title, error) {
	var (
		t              models.Title
		originalName   sql.NullString
		overview       sql.NullString
		posterPath     sql.NullString
		backdropPath   sql.NullString
		externalID     sql.NullInt64
		externalRating sql.NullFloat64
		personalRating sql.NullFloat64
		year           sql.NullInt64
		runtime        sql.NullInt64
		genres         sql.NullString
		totalEpisodes  sql.NullInt64
		totalSeasons   sql.NullInt64
		seasons        sql.NullString
		airStatus      sql.NullString
		watchSource    sql.NullString
		watchedDate    sql.NullString
		notes          sql.NullString
	)

	err := row.Scan(
		&t.ID, &t.Name, &originalName, &overview, &posterPath, &backdropPath,
		&externalID, &externalRating, &personalRating, &t.Status, &t.Kind, &year, &runtime, &genres,
		&t.CurrentEpisode, &totalEpisodes, &t.CurrentSeason, &totalSeasons, &seasons,
		&airStatus, &watchSource, &watchedDate, &notes, &t.ReplayCount,
		&t.DateAdded, &t.DateUpdated, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.OriginalName = originalName.String
	t.Overview = overview.String
	t.PosterPath = posterPath.String
	t.BackdropPath = backdropPath.String
	if externalID.Valid {
		t.ExternalID = &externalID.Int64
	}
	t.ExternalRating = externalRating.Float64
	if personalRating.Valid {
		t.PersonalRating = &personalRating.Float64
	}
	if year.Valid {
		y := int(year.Int64)
		t.Year = &y
	}
	if runtime.Valid {
		m := int(runtime.Int64)
		t.Runtime = &m
	}
	t.Genres = fieldcodec.Decode[[]string](genres)
	if totalEpisodes.Valid {
		n := int(totalEpisodes.Int64)
		t.TotalEpisodes = &n
	}
	if totalSeasons.Valid {
		n := int(totalSeasons.Int64)
		t.TotalSeasons = &n
	}
	t.Seasons = fieldcodec.Decode[models.SeasonMap](seasons)
	t.AirStatus = airStatus.String
	t.WatchSource = watchSource.String
	t.WatchedDate = watchedDate.String
	t.Notes = notes.String

	return &t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func intOrDefault(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func stringOrDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
