package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchlog/internal/repository"
	"watchlog/internal/service"
	"watchlog/internal/tmdb"
)

func newTestRouter(t *testing.T, apiToken string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	db, err := repository.NewSQLiteDB(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitSchema())

	titles := repository.NewTitleRepository(db)
	events := repository.NewReplayEventRepository(db)
	stats := repository.NewStatisticsRepository(db)
	replayLog := service.NewReplayLogService(events, service.NewRecalculator(titles, events))
	library := service.NewLibraryService(titles, events, stats, replayLog, zerolog.Nop())

	tmdbClient := tmdb.NewClient("test-key", "")
	reminders := service.NewReminderService(titles, tmdbClient, zerolog.Nop())
	backupSvc := service.NewBackupService(dbPath, filepath.Join(dir, "backups"), zerolog.Nop())

	router := gin.New()
	NewHTTPHandler(library, replayLog, reminders, backupSvc, tmdbClient, apiToken).RegisterRoutes(router)
	return router
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w, env
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, "")

	w, env := doJSON(t, router, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
}

func TestTitleLifecycle(t *testing.T) {
	router := newTestRouter(t, "")

	w, env := doJSON(t, router, http.MethodPost, "/api/titles", gin.H{
		"title":  "The Thing",
		"status": "completed",
		"kind":   "movie",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.True(t, env.Success)

	var created struct {
		ID     string `json:"id"`
		Name   string `json:"title"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "The Thing", created.Name)
	require.NotEmpty(t, created.ID)

	w, env = doJSON(t, router, http.MethodGet, "/api/titles/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	w, env = doJSON(t, router, http.MethodPut, "/api/titles/"+created.ID, gin.H{
		"title":  "The Thing",
		"status": "completed",
		"notes":  "still holds up",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	w, env = doJSON(t, router, http.MethodDelete, "/api/titles/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	w, env = doJSON(t, router, http.MethodGet, "/api/titles/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestAddTitleValidationError(t *testing.T) {
	router := newTestRouter(t, "")

	w, env := doJSON(t, router, http.MethodPost, "/api/titles", gin.H{"status": "watching"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "title")
}

func TestAddTitleDuplicateExternalID(t *testing.T) {
	router := newTestRouter(t, "")

	body := gin.H{"title": "Dupe", "external_id": 42}
	w, _ := doJSON(t, router, http.MethodPost, "/api/titles", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w, env := doJSON(t, router, http.MethodPost, "/api/titles", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Data, "conflict response carries the existing title")
}

func TestReplayWorkflowOverHTTP(t *testing.T) {
	router := newTestRouter(t, "")

	_, env := doJSON(t, router, http.MethodPost, "/api/titles", gin.H{"title": "Rewatched"})
	var title struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &title))

	w, env := doJSON(t, router, http.MethodPost, "/api/replays", gin.H{
		"title_id":   title.ID,
		"watch_date": "2024-05-01",
		"progress":   1.0,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var event struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &event))

	// the title's replay_count reflects the new event
	_, env = doJSON(t, router, http.MethodGet, "/api/titles/"+title.ID, nil)
	var updated struct {
		ReplayCount int `json:"replay_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, 1, updated.ReplayCount)

	w, env = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/titles/%s/replays", title.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var list []json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	w, env = doJSON(t, router, http.MethodDelete, "/api/replays/"+event.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	_, env = doJSON(t, router, http.MethodGet, "/api/titles/"+title.ID, nil)
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, 0, updated.ReplayCount)
}

func TestListTitlesEmptyIsArray(t *testing.T) {
	router := newTestRouter(t, "")

	w, env := doJSON(t, router, http.MethodGet, "/api/titles", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", string(env.Data))
}

func TestAuthMiddleware(t *testing.T) {
	router := newTestRouter(t, "secret-token")

	// health stays open for probes
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/titles", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/titles", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/titles", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearchRequiresQuery(t *testing.T) {
	router := newTestRouter(t, "")

	w, env := doJSON(t, router, http.MethodGet, "/api/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
}
