package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jengzang/location-bridge-go/internal/models"
)

// TrackRepository handles database operations for recorded fixes
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new track repository
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

const trackPointColumns = `id, data_time, longitude, latitude, altitude, heading, accuracy, speed, mocked, created_at`

// Insert stores a fix and returns its id
func (r *TrackRepository) Insert(ctx context.Context, p models.TrackPoint) (int64, error) {
	query := `INSERT INTO track_points (data_time, longitude, latitude, altitude, heading, accuracy, speed, mocked)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query,
		p.DataTime, p.Longitude, p.Latitude, p.Altitude, p.Heading, p.Accuracy, p.Speed, p.Mocked)
	if err != nil {
		return 0, fmt.Errorf("failed to insert track point: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get track point id: %w", err)
	}
	return id, nil
}

// Latest returns the most recent fix, nil when nothing was recorded
func (r *TrackRepository) Latest(ctx context.Context) (*models.TrackPoint, error) {
	query := `SELECT ` + trackPointColumns + ` FROM track_points ORDER BY data_time DESC, id DESC LIMIT 1`

	p, err := scanTrackPoint(r.db.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest track point: %w", err)
	}
	return &p, nil
}

// List returns fixes in chronological order
func (r *TrackRepository) List(ctx context.Context, filter models.TrackPointFilter) ([]models.TrackPoint, error) {
	query := `SELECT ` + trackPointColumns + ` FROM track_points`

	var conditions []string
	var args []interface{}

	if filter.StartTime > 0 {
		conditions = append(conditions, "data_time >= ?")
		args = append(args, filter.StartTime)
	}
	if filter.EndTime > 0 {
		conditions = append(conditions, "data_time <= ?")
		args = append(args, filter.EndTime)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	if filter.Limit < 1 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	query += " ORDER BY data_time ASC, id ASC LIMIT ?"
	args = append(args, filter.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query track points: %w", err)
	}
	defer rows.Close()

	var points []models.TrackPoint
	for rows.Next() {
		p, err := scanTrackPoint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track point: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// Count returns the number of recorded fixes
func (r *TrackRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM track_points").Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count track points: %w", err)
	}
	return total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrackPoint(s rowScanner) (models.TrackPoint, error) {
	var p models.TrackPoint
	err := s.Scan(
		&p.ID, &p.DataTime, &p.Longitude, &p.Latitude, &p.Altitude,
		&p.Heading, &p.Accuracy, &p.Speed, &p.Mocked, &p.CreatedAt,
	)
	return p, err
}
