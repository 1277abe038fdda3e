package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danicaoo/musicShop/internal/model"
)

const compositionColumns = `id, title, duration_seconds, creation_year, genre, created_at`

func scanComposition(row interface{ Scan(...any) error }) (*model.Composition, error) {
	c := &model.Composition{}
	var year sql.NullInt64
	var genre sql.NullString
	if err := row.Scan(&c.ID, &c.Title, &c.DurationSeconds, &year, &genre, &c.CreatedAt); err != nil {
		return nil, err
	}
	if year.Valid {
		y := int(year.Int64)
		c.CreationYear = &y
	}
	c.Genre = genre.String
	return c, nil
}

func checkComposition(c *model.Composition) error {
	if c.Title == "" {
		return model.Invalid("title is required")
	}
	if c.DurationSeconds <= 0 {
		return model.Invalid("duration must be positive")
	}
	return nil
}

// CreateComposition adds a composition to the catalog.
func CreateComposition(ctx context.Context, db *sql.DB, c model.Composition) (*model.Composition, error) {
	if err := checkComposition(&c); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO compositions (title, duration_seconds, creation_year, genre) VALUES (?, ?, ?, ?)`,
		c.Title, c.DurationSeconds, c.CreationYear, nullString(c.Genre),
	)
	if err != nil {
		return nil, fmt.Errorf("creating composition: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting composition id: %w", err)
	}
	return GetComposition(ctx, db, id)
}

// GetComposition returns a composition by ID.
func GetComposition(ctx context.Context, db *sql.DB, id int64) (*model.Composition, error) {
	c, err := scanComposition(db.QueryRowContext(ctx,
		`SELECT `+compositionColumns+` FROM compositions WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting composition: %w", err)
	}
	return c, nil
}

// ListCompositions returns every composition ordered by title.
func ListCompositions(ctx context.Context, db *sql.DB) ([]model.Composition, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+compositionColumns+` FROM compositions ORDER BY title, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing compositions: %w", err)
	}
	defer rows.Close()

	compositions := []model.Composition{}
	for rows.Next() {
		c, err := scanComposition(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning composition: %w", err)
		}
		compositions = append(compositions, *c)
	}
	return compositions, rows.Err()
}

// UpdateComposition applies a partial update and returns the result.
func UpdateComposition(ctx context.Context, db *sql.DB, id int64, p model.CompositionPatch) (*model.Composition, error) {
	c, err := GetComposition(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, model.NotFound("composition", id)
	}

	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.DurationSeconds != nil {
		c.DurationSeconds = *p.DurationSeconds
	}
	if p.CreationYear != nil {
		c.CreationYear = p.CreationYear
	}
	if p.Genre != nil {
		c.Genre = *p.Genre
	}
	if err := checkComposition(c); err != nil {
		return nil, err
	}

	_, err = db.ExecContext(ctx,
		`UPDATE compositions SET title = ?, duration_seconds = ?, creation_year = ?, genre = ? WHERE id = ?`,
		c.Title, c.DurationSeconds, c.CreationYear, nullString(c.Genre), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating composition: %w", err)
	}
	return GetComposition(ctx, db, id)
}

// DeleteComposition removes a composition that no recording references.
func DeleteComposition(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var recordings int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recordings WHERE composition_id = ?`, id,
	).Scan(&recordings)
	if err != nil {
		return fmt.Errorf("counting recordings: %w", err)
	}
	if recordings > 0 {
		return &model.ConflictError{Message: fmt.Sprintf("composition %d has %d recordings", id, recordings)}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM compositions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting composition: %w", err)
	}
	if err := requireRow(res, "composition", id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing composition delete: %w", err)
	}
	return nil
}
