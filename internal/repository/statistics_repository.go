package repository

import (
	"database/sql"

	"watchlog/internal/models"
)

// StatisticsRepository derives catalog summary figures with aggregate queries.
type StatisticsRepository struct {
	db dbtx
}

// NewStatisticsRepository creates a new StatisticsRepository
func NewStatisticsRepository(sqliteDB *SQLiteDB) *StatisticsRepository {
	return &StatisticsRepository{db: sqliteDB.db}
}

// Get computes the catalog statistics.
func (r *StatisticsRepository) Get() (*models.Statistics, error) {
	stats := &models.Statistics{
		ByStatus: make(map[models.WatchStatus]int),
		ByKind:   make(map[models.MediaKind]int),
	}

	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM titles GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status models.WatchStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.TotalTitles += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	kindRows, err := r.db.Query(`SELECT kind, COUNT(*) FROM titles GROUP BY kind`)
	if err != nil {
		return nil, err
	}
	defer kindRows.Close()
	for kindRows.Next() {
		var kind models.MediaKind
		var count int
		if err := kindRows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		stats.ByKind[kind] = count
	}
	if err := kindRows.Err(); err != nil {
		return nil, err
	}

	err = r.db.QueryRow(`SELECT COUNT(*) FROM replay_events`).Scan(&stats.TotalReplays)
	if err != nil {
		return nil, err
	}

	var avg sql.NullFloat64
	err = r.db.QueryRow(`SELECT AVG(personal_rating) FROM titles WHERE personal_rating IS NOT NULL`).Scan(&avg)
	if err != nil {
		return nil, err
	}
	stats.AvgPersonalRate = avg.Float64

	return stats, nil
}
