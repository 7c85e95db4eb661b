package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"watchlog/internal/models"
	"watchlog/internal/repository"
	"watchlog/internal/service"
	"watchlog/internal/tmdb"
)

// HTTPHandler exposes the catalog operations over HTTP. Every response uses
// the uniform envelope {"success": true, "data": ...} or
// {"success": false, "error": ...}; failures are values, never panics.
type HTTPHandler struct {
	library    *service.LibraryService
	replayLog  *service.ReplayLogService
	reminders  *service.ReminderService
	backupSvc  *service.BackupService
	tmdbClient *tmdb.Client
	apiToken   string
}

// NewHTTPHandler creates a new HTTPHandler
func NewHTTPHandler(
	library *service.LibraryService,
	replayLog *service.ReplayLogService,
	reminders *service.ReminderService,
	backupSvc *service.BackupService,
	tmdbClient *tmdb.Client,
	apiToken string,
) *HTTPHandler {
	return &HTTPHandler{
		library:    library,
		replayLog:  replayLog,
		reminders:  reminders,
		backupSvc:  backupSvc,
		tmdbClient: tmdbClient,
		apiToken:   strings.TrimSpace(apiToken),
	}
}

// RegisterRoutes registers all HTTP routes
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	// Health check must allow unauthenticated ping for probes
	r.GET("/api/health", h.Health)

	api := r.Group("/api")
	api.Use(h.authMiddleware)

	api.GET("/titles", h.ListTitles)
	api.GET("/titles/:id", h.GetTitle)
	api.POST("/titles", h.AddTitle)
	api.PUT("/titles/:id", h.UpdateTitle)
	api.DELETE("/titles/:id", h.DeleteTitle)
	api.GET("/titles/:id/replays", h.ListTitleReplays)

	api.GET("/replays", h.ListAllReplays)
	api.GET("/replays/:id", h.GetReplay)
	api.POST("/replays", h.AddReplay)
	api.PUT("/replays/:id", h.UpdateReplay)
	api.DELETE("/replays/:id", h.DeleteReplay)

	api.GET("/statistics", h.GetStatistics)
	api.GET("/reminders", h.GetReminders)
	api.GET("/search", h.Search)
	api.POST("/backup", h.Backup)
}

// Health reports process liveness
func (h *HTTPHandler) Health(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{"status": "ok"})
}

// ListTitles returns titles ordered by date_updated descending, optionally
// filtered by status and paginated.
func (h *HTTPHandler) ListTitles(c *gin.Context) {
	status := models.WatchStatus(c.Query("status"))
	if status != "" && !models.ValidStatus(status) {
		respondError(c, &repository.ValidationError{Field: "status", Reason: "unknown status " + string(status)})
		return
	}

	limit := h.intQuery(c, "limit")
	offset := h.intQuery(c, "offset")

	titles, err := h.library.ListTitles(status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	if titles == nil {
		titles = []models.Title{}
	}
	respondOK(c, http.StatusOK, titles)
}

// GetTitle returns a single title
func (h *HTTPHandler) GetTitle(c *gin.Context) {
	title, err := h.library.GetTitle(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if title == nil {
		respondError(c, repository.ErrNotFound)
		return
	}
	respondOK(c, http.StatusOK, title)
}

// AddTitle inserts a new title. A duplicate external id is rejected so the
// same show is not tracked twice.
func (h *HTTPHandler) AddTitle(c *gin.Context) {
	var form models.TitleForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondError(c, &repository.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	if form.ExternalID != nil {
		existing, err := h.library.CheckExisting(*form.ExternalID)
		if err != nil {
			respondError(c, err)
			return
		}
		if existing != nil {
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "title already tracked", "data": existing})
			return
		}
	}

	title, err := h.library.AddTitle(&form)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, title)
}

// UpdateTitle applies a title edit and syncs the latest replay event when the
// edit carries a personal rating.
func (h *HTTPHandler) UpdateTitle(c *gin.Context) {
	var form models.TitleForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondError(c, &repository.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	title, err := h.library.UpdateTitleAndSyncLatestEvent(c.Param("id"), &form)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, title)
}

// DeleteTitle removes a title
func (h *HTTPHandler) DeleteTitle(c *gin.Context) {
	if err := h.library.DeleteTitle(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// ListTitleReplays returns a title's replay events
func (h *HTTPHandler) ListTitleReplays(c *gin.Context) {
	events, err := h.replayLog.ListByTitle(c.Param("id"), h.intQuery(c, "limit"), h.intQuery(c, "offset"))
	if err != nil {
		respondError(c, err)
		return
	}
	if events == nil {
		events = []models.ReplayEvent{}
	}
	respondOK(c, http.StatusOK, events)
}

// ListAllReplays returns every replay event with title snapshots
func (h *HTTPHandler) ListAllReplays(c *gin.Context) {
	events, err := h.replayLog.ListAll(h.intQuery(c, "limit"), h.intQuery(c, "offset"))
	if err != nil {
		respondError(c, err)
		return
	}
	if events == nil {
		events = []models.ReplayEventWithTitle{}
	}
	respondOK(c, http.StatusOK, events)
}

// GetReplay returns a single replay event
func (h *HTTPHandler) GetReplay(c *gin.Context) {
	event, err := h.replayLog.GetEvent(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if event == nil {
		respondError(c, repository.ErrNotFound)
		return
	}
	respondOK(c, http.StatusOK, event)
}

// AddReplay records a watch occurrence and refreshes the title's aggregates
func (h *HTTPHandler) AddReplay(c *gin.Context) {
	var form models.ReplayEventForm
	if err := c.ShouldBindJSON(&form); err != nil {
		respondError(c, &repository.ValidationError{Field: "body", Reason: err.Error()})
		return
	}

	event, err := h.replayLog.AddEvent(&form)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, event)
}

// UpdateReplay rewrites a replay event and refreshes the title's aggregates
func (h *HTTPHandler) UpdateReplay(c *gin.Context) {
	var event models.ReplayEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		respondError(c, &repository.ValidationError{Field: "body", Reason: err.Error()})
		return
	}
	event.ID = c.Param("id")

	updated, err := h.replayLog.UpdateEvent(&event)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, updated)
}

// DeleteReplay removes a replay event and refreshes the title's aggregates
func (h *HTTPHandler) DeleteReplay(c *gin.Context) {
	if err := h.replayLog.DeleteEvent(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// GetStatistics returns catalog summary figures
func (h *HTTPHandler) GetStatistics(c *gin.Context) {
	stats, err := h.library.Statistics()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, stats)
}

// GetReminders returns upcoming episodes grouped by air date
func (h *HTTPHandler) GetReminders(c *gin.Context) {
	days := h.intQuery(c, "days")
	groups, err := h.reminders.UpcomingGrouped(days)
	if err != nil {
		respondError(c, err)
		return
	}
	if groups == nil {
		groups = []service.ReminderGroup{}
	}
	respondOK(c, http.StatusOK, groups)
}

// Search proxies a metadata-provider search
func (h *HTTPHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		respondError(c, &repository.ValidationError{Field: "q", Reason: "query parameter is required"})
		return
	}

	var (
		results []tmdb.SearchResult
		err     error
	)
	if c.Query("kind") == string(models.KindMovie) {
		results, err = h.tmdbClient.SearchMovie(query)
	} else {
		results, err = h.tmdbClient.SearchTV(query)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, results)
}

// Backup triggers an on-demand database backup
func (h *HTTPHandler) Backup(c *gin.Context) {
	backupPath, err := h.backupSvc.Backup()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"backup_path": backupPath})
}

// authMiddleware enforces the API token when one is configured
func (h *HTTPHandler) authMiddleware(c *gin.Context) {
	if h.apiToken == "" {
		c.Next()
		return
	}

	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.apiToken)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
		return
	}
	c.Next()
}

func (h *HTTPHandler) intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var validationErr *repository.ValidationError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	}

	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}
