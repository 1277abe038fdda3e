package store

import (
	"context"
	"database/sql"
	"fmt"
	"unicode/utf8"

	"github.com/danicaoo/musicShop/internal/model"
)

const recordingSelect = `SELECT r.id, r.composition_id, r.recording_date, r.studio, r.created_at, c.title
	FROM recordings r
	JOIN compositions c ON c.id = r.composition_id`

func scanRecording(row interface{ Scan(...any) error }) (*model.Recording, error) {
	r := &model.Recording{}
	var studio sql.NullString
	if err := row.Scan(&r.ID, &r.CompositionID, &r.RecordingDate, &studio, &r.CreatedAt, &r.CompositionTitle); err != nil {
		return nil, err
	}
	r.Studio = studio.String
	return r, nil
}

// CreateRecording adds a recording of an existing composition.
func CreateRecording(ctx context.Context, db *sql.DB, r model.Recording) (*model.Recording, error) {
	if r.RecordingDate.IsZero() {
		return nil, model.Invalid("recording date is required")
	}
	c, err := GetComposition(ctx, db, r.CompositionID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, model.NotFound("composition", r.CompositionID)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO recordings (composition_id, recording_date, studio) VALUES (?, ?, ?)`,
		r.CompositionID, nullTime(&r.RecordingDate), nullString(r.Studio),
	)
	if err != nil {
		return nil, fmt.Errorf("creating recording: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting recording id: %w", err)
	}
	return GetRecording(ctx, db, id)
}

// GetRecording returns a recording with its composition title.
func GetRecording(ctx context.Context, db *sql.DB, id int64) (*model.Recording, error) {
	r, err := scanRecording(db.QueryRowContext(ctx, recordingSelect+` WHERE r.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting recording: %w", err)
	}
	return r, nil
}

// ListRecordings returns every recording, newest first.
func ListRecordings(ctx context.Context, db *sql.DB) ([]model.Recording, error) {
	return queryRecordings(ctx, db, recordingSelect+` ORDER BY r.recording_date DESC, r.id DESC`)
}

// SearchRecordings matches q against the studio and the composition title.
func SearchRecordings(ctx context.Context, db *sql.DB, q string, limit int) ([]model.Recording, error) {
	if utf8.RuneCountInString(q) < MinSearchLength {
		return nil, model.Invalid("search query must be at least %d characters", MinSearchLength)
	}
	pattern := likePattern(q)
	return queryRecordings(ctx, db,
		recordingSelect+` WHERE fold(r.studio) LIKE ? ESCAPE '\' OR fold(c.title) LIKE ? ESCAPE '\'
		 ORDER BY r.recording_date DESC, r.id DESC LIMIT ?`,
		pattern, pattern, limit)
}

func queryRecordings(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.Recording, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing recordings: %w", err)
	}
	defer rows.Close()

	recordings := []model.Recording{}
	for rows.Next() {
		r, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning recording: %w", err)
		}
		recordings = append(recordings, *r)
	}
	return recordings, rows.Err()
}
