package models

// MediaKind distinguishes movies from series
type MediaKind string

const (
	KindMovie  MediaKind = "movie"
	KindSeries MediaKind = "series"
)

// WatchStatus represents the lifecycle status of a tracked title
type WatchStatus string

const (
	StatusWatching  WatchStatus = "watching"
	StatusCompleted WatchStatus = "completed"
	StatusPlanned   WatchStatus = "planned"
	StatusPaused    WatchStatus = "paused"
	StatusDropped   WatchStatus = "dropped"
)

// ValidStatus reports whether s is one of the known lifecycle statuses.
func ValidStatus(s WatchStatus) bool {
	switch s {
	case StatusWatching, StatusCompleted, StatusPlanned, StatusPaused, StatusDropped:
		return true
	}
	return false
}

// SeasonInfo holds per-season progress metadata stored as JSON on the title row
type SeasonInfo struct {
	Name     string `json:"name,omitempty"`
	Episodes []int  `json:"episodes,omitempty"`
}

// SeasonMap maps season number to its metadata. JSON object keys are the
// season numbers rendered as strings.
type SeasonMap map[int]SeasonInfo

// Title represents a tracked movie or TV series entry.
//
// Timestamp fields are sortable RFC3339 strings:
//   - CreatedAt is set once at insert and never modified
//   - DateAdded anchors the first watch (caller watch date, else insert time)
//   - DateUpdated is the display ordering key, derived by the
//     timestamp-precedence rule on update
//   - UpdatedAt is a technical last-touched marker, refreshed by aggregate
//     recalculation
type Title struct {
	ID             string      `json:"id"`
	Name           string      `json:"title"`
	OriginalName   string      `json:"original_title,omitempty"`
	Overview       string      `json:"overview,omitempty"`
	PosterPath     string      `json:"poster_path,omitempty"`
	BackdropPath   string      `json:"backdrop_path,omitempty"`
	ExternalID     *int64      `json:"external_id,omitempty"`
	ExternalRating float64     `json:"external_rating"`
	PersonalRating *float64    `json:"personal_rating,omitempty"`
	Status         WatchStatus `json:"status"`
	Kind           MediaKind   `json:"kind"`
	Year           *int        `json:"year,omitempty"`
	Runtime        *int        `json:"runtime,omitempty"`
	Genres         []string    `json:"genres,omitempty"`
	CurrentEpisode int         `json:"current_episode"`
	TotalEpisodes  *int        `json:"total_episodes,omitempty"`
	CurrentSeason  int         `json:"current_season"`
	TotalSeasons   *int        `json:"total_seasons,omitempty"`
	Seasons        SeasonMap   `json:"seasons,omitempty"`
	AirStatus      string      `json:"air_status,omitempty"`
	WatchSource    string      `json:"watch_source,omitempty"`
	WatchedDate    string      `json:"watched_date,omitempty"`
	Notes          string      `json:"notes,omitempty"`
	ReplayCount    int         `json:"replay_count"`
	DateAdded      string      `json:"date_added"`
	DateUpdated    string      `json:"date_updated"`
	CreatedAt      string      `json:"created_at"`
	UpdatedAt      string      `json:"updated_at"`
}

// TitleForm carries caller input for inserting or updating a title. ID and
// created_at/updated_at are always generated server-side regardless of what
// the caller supplies.
type TitleForm struct {
	Name           string      `json:"title"`
	OriginalName   string      `json:"original_title"`
	Overview       string      `json:"overview"`
	PosterPath     string      `json:"poster_path"`
	BackdropPath   string      `json:"backdrop_path"`
	ExternalID     *int64      `json:"external_id"`
	ExternalRating float64     `json:"external_rating"`
	PersonalRating *float64    `json:"personal_rating"`
	Status         WatchStatus `json:"status"`
	Kind           MediaKind   `json:"kind"`
	Year           *int        `json:"year"`
	Runtime        *int        `json:"runtime"`
	Genres         []string    `json:"genres"`
	CurrentEpisode *int        `json:"current_episode"`
	TotalEpisodes  *int        `json:"total_episodes"`
	CurrentSeason  *int        `json:"current_season"`
	TotalSeasons   *int        `json:"total_seasons"`
	Seasons        SeasonMap   `json:"seasons"`
	AirStatus      string      `json:"air_status"`
	WatchSource    string      `json:"watch_source"`
	WatchedDate    string      `json:"watched_date"`
	Notes          string      `json:"notes"`
}

// ReplayEvent represents one recorded watch occurrence of a title.
type ReplayEvent struct {
	ID        string   `json:"id"`
	TitleID   string   `json:"title_id"`
	WatchDate string   `json:"watch_date"`
	Episode   int      `json:"episode"`
	Season    int      `json:"season"`
	Duration  int      `json:"duration"`
	Progress  float64  `json:"progress"`
	Rating    *float64 `json:"rating,omitempty"`
	Notes     string   `json:"notes,omitempty"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// ReplayEventForm carries caller input for recording a watch occurrence.
type ReplayEventForm struct {
	TitleID   string   `json:"title_id"`
	WatchDate string   `json:"watch_date"`
	Episode   int      `json:"episode"`
	Season    int      `json:"season"`
	Duration  int      `json:"duration"`
	Progress  float64  `json:"progress"`
	Rating    *float64 `json:"rating"`
	Notes     string   `json:"notes"`
}

// TitleSnapshot is the subset of title fields joined onto the all-events
// listing for presentation.
type TitleSnapshot struct {
	ID         string    `json:"id"`
	Name       string    `json:"title"`
	PosterPath string    `json:"poster_path,omitempty"`
	Kind       MediaKind `json:"kind"`
}

// ReplayEventWithTitle is a replay event optionally joined with its owning
// title. Title is nil when the title row no longer exists.
type ReplayEventWithTitle struct {
	ReplayEvent
	Title *TitleSnapshot `json:"title_info,omitempty"`
}

// Statistics summarizes the catalog.
type Statistics struct {
	TotalTitles     int                 `json:"total_titles"`
	ByStatus        map[WatchStatus]int `json:"by_status"`
	ByKind          map[MediaKind]int   `json:"by_kind"`
	TotalReplays    int                 `json:"total_replays"`
	AvgPersonalRate float64             `json:"avg_personal_rating"`
}
