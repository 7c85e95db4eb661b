package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchlog/internal/models"
)

func TestReplayEventInsertAndGet(t *testing.T) {
	db := newTestDB(t)
	titles := NewTitleRepository(db)
	events := NewReplayEventRepository(db)

	title, err := titles.Insert(&models.TitleForm{Name: "X"})
	require.NoError(t, err)

	rating := 8.5
	event, err := events.Insert(&models.ReplayEventForm{
		TitleID:   title.ID,
		WatchDate: "2024-05-01",
		Season:    1,
		Episode:   3,
		Duration:  42,
		Progress:  1.0,
		Rating:    &rating,
		Notes:     "rewatch",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)

	stored, err := events.GetByID(event.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, title.ID, stored.TitleID)
	assert.Equal(t, "2024-05-01", stored.WatchDate)
	assert.Equal(t, 3, stored.Episode)
	require.NotNil(t, stored.Rating)
	assert.Equal(t, 8.5, *stored.Rating)
	assert.Equal(t, "rewatch", stored.Notes)

	missing, err := events.GetByID("no-such-id")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReplayEventInsertValidation(t *testing.T) {
	events := NewReplayEventRepository(newTestDB(t))

	var validationErr *ValidationError

	_, err := events.Insert(&models.ReplayEventForm{WatchDate: "2024-05-01"})
	assert.ErrorAs(t, err, &validationErr)

	_, err = events.Insert(&models.ReplayEventForm{TitleID: "t1"})
	assert.ErrorAs(t, err, &validationErr)

	_, err = events.Insert(&models.ReplayEventForm{TitleID: "t1", WatchDate: "2024-05-01", Progress: 1.5})
	assert.ErrorAs(t, err, &validationErr)

	rating := -1.0
	_, err = events.Insert(&models.ReplayEventForm{TitleID: "t1", WatchDate: "2024-05-01", Rating: &rating})
	assert.ErrorAs(t, err, &validationErr)
}

func TestListByTitleOrderedByWatchDate(t *testing.T) {
	db := newTestDB(t)
	titles := NewTitleRepository(db)
	events := NewReplayEventRepository(db)

	title, err := titles.Insert(&models.TitleForm{Name: "X"})
	require.NoError(t, err)
	other, err := titles.Insert(&models.TitleForm{Name: "Y"})
	require.NoError(t, err)

	for _, date := range []string{"2024-01-15", "2024-03-01", "2024-02-10"} {
		_, err := events.Insert(&models.ReplayEventForm{TitleID: title.ID, WatchDate: date})
		require.NoError(t, err)
	}
	_, err = events.Insert(&models.ReplayEventForm{TitleID: other.ID, WatchDate: "2024-06-01"})
	require.NoError(t, err)

	list, err := events.ListByTitle(title.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2024-03-01", list[0].WatchDate)
	assert.Equal(t, "2024-02-10", list[1].WatchDate)
	assert.Equal(t, "2024-01-15", list[2].WatchDate)

	page, err := events.ListByTitle(title.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "2024-02-10", page[0].WatchDate)
}

func TestGetLatestForTitlePrefersMostRecentlyAdded(t *testing.T) {
	db := newTestDB(t)
	titles := NewTitleRepository(db)
	events := NewReplayEventRepository(db)

	title, err := titles.Insert(&models.TitleForm{Name: "X"})
	require.NoError(t, err)

	none, err := events.GetLatestForTitle(title.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	// the second event has an older watch date but was added later, and
	// latest means latest added
	_, err = events.Insert(&models.ReplayEventForm{TitleID: title.ID, WatchDate: "2024-06-01"})
	require.NoError(t, err)
	backfill, err := events.Insert(&models.ReplayEventForm{TitleID: title.ID, WatchDate: "2023-01-01"})
	require.NoError(t, err)

	latest, err := events.GetLatestForTitle(title.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, backfill.ID, latest.ID)
}

func TestReplayEventUpdate(t *testing.T) {
	db := newTestDB(t)
	titles := NewTitleRepository(db)
	events := NewReplayEventRepository(db)

	title, err := titles.Insert(&models.TitleForm{Name: "X"})
	require.NoError(t, err)

	event, err := events.Insert(&models.ReplayEventForm{TitleID: title.ID, WatchDate: "2024-05-01"})
	require.NoError(t, err)

	rating := 7.0
	event.Rating = &rating
	event.Notes = "better on rewatch"
	updated, err := events.Update(event)
	require.NoError(t, err)
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 7.0, *updated.Rating)

	stored, err := events.GetByID(event.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "better on rewatch", stored.Notes)

	ghost := *event
	ghost.ID = "no-such-id"
	_, err = events.Update(&ghost)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplayEventDeleteAndCount(t *testing.T) {
	db := newTestDB(t)
	titles := NewTitleRepository(db)
	events := NewReplayEventRepository(db)

	title, err := titles.Insert(&models.TitleForm{Name: "X"})
	require.NoError(t, err)

	event, err := events.Insert(&models.ReplayEventForm{TitleID: title.ID, WatchDate: "2024-05-01"})
	require.NoError(t, err)

	count, err := events.CountForTitle(title.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, events.Delete(event.ID))

	count, err = events.CountForTitle(title.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	assert.ErrorIs(t, events.Delete(event.ID), ErrNotFound)
}

func TestListAllJoinsTitleSnapshot(t *testing.T) {
	db := newTestDB(t)
	titles := NewTitleRepository(db)
	events := NewReplayEventRepository(db)

	kept, err := titles.Insert(&models.TitleForm{Name: "Kept", Kind: models.KindSeries})
	require.NoError(t, err)
	doomed, err := titles.Insert(&models.TitleForm{Name: "Doomed"})
	require.NoError(t, err)

	_, err = events.Insert(&models.ReplayEventForm{TitleID: kept.ID, WatchDate: "2024-05-02"})
	require.NoError(t, err)
	_, err = events.Insert(&models.ReplayEventForm{TitleID: doomed.ID, WatchDate: "2024-05-01"})
	require.NoError(t, err)

	// orphaned events survive their title's deletion, they just lose the
	// joined snapshot
	require.NoError(t, titles.Delete(doomed.ID))

	all, err := events.ListAll(0, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)

	require.NotNil(t, all[0].Title)
	assert.Equal(t, "Kept", all[0].Title.Name)
	assert.Equal(t, models.KindSeries, all[0].Title.Kind)

	assert.Nil(t, all[1].Title)
	assert.Equal(t, doomed.ID, all[1].TitleID)
}

func TestSetReplayStats(t *testing.T) {
	db := newTestDB(t)
	titles := NewTitleRepository(db)

	title, err := titles.Insert(&models.TitleForm{Name: "X"})
	require.NoError(t, err)

	require.NoError(t, titles.SetReplayStats(title.ID, 3))

	stored, err := titles.GetByID(title.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 3, stored.ReplayCount)

	// tolerated for deleted titles, nothing to keep in step anymore
	require.NoError(t, titles.SetReplayStats("no-such-id", 5))
}
