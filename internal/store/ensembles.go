package store

import (
	"context"
	"database/sql"
	"fmt"
	"unicode/utf8"

	"github.com/danicaoo/musicShop/internal/model"
)

const ensembleColumns = `id, name, formation_date, type, created_at`

func scanEnsemble(row interface{ Scan(...any) error }) (*model.Ensemble, error) {
	e := &model.Ensemble{}
	if err := row.Scan(&e.ID, &e.Name, &e.FormationDate, &e.Type, &e.CreatedAt); err != nil {
		return nil, err
	}
	return e, nil
}

// CreateEnsemble creates an ensemble together with its members in a single
// transaction. Every member must reference an existing musician.
func CreateEnsemble(ctx context.Context, db *sql.DB, e model.Ensemble) (*model.Ensemble, error) {
	if e.Name == "" {
		return nil, model.Invalid("name is required")
	}
	if e.FormationDate.IsZero() {
		return nil, model.Invalid("formation date is required")
	}
	if !model.ValidEnsembleType(e.Type) {
		return nil, model.Invalid("invalid ensemble type %q", e.Type)
	}
	if len(e.Members) == 0 {
		return nil, model.Invalid("an ensemble needs at least one member")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO ensembles (name, formation_date, type) VALUES (?, ?, ?)`,
		e.Name, nullTime(&e.FormationDate), e.Type,
	)
	if err != nil {
		return nil, fmt.Errorf("creating ensemble: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting ensemble id: %w", err)
	}

	for _, m := range e.Members {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM musicians WHERE id = ?`, m.MusicianID).Scan(&exists)
		if err == sql.ErrNoRows {
			return nil, model.NotFound("musician", m.MusicianID)
		}
		if err != nil {
			return nil, fmt.Errorf("checking musician: %w", err)
		}

		start := m.StartDate
		if start.IsZero() {
			start = e.FormationDate
		}
		if m.EndDate != nil && m.EndDate.Before(start) {
			return nil, model.Invalid("membership of musician %d ends before it starts", m.MusicianID)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO ensemble_members (ensemble_id, musician_id, role, start_date, end_date)
			 VALUES (?, ?, ?, ?, ?)`,
			id, m.MusicianID, m.Role, nullTime(&start), nullTime(m.EndDate),
		)
		if isUniqueViolation(err) {
			return nil, &model.ConflictError{Message: fmt.Sprintf("musician %d is listed twice with the same start date", m.MusicianID)}
		}
		if err != nil {
			return nil, fmt.Errorf("adding ensemble member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing ensemble: %w", err)
	}
	return GetEnsemble(ctx, db, id)
}

// GetEnsemble returns an ensemble with its members.
func GetEnsemble(ctx context.Context, db *sql.DB, id int64) (*model.Ensemble, error) {
	e, err := scanEnsemble(db.QueryRowContext(ctx,
		`SELECT `+ensembleColumns+` FROM ensembles WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting ensemble: %w", err)
	}

	e.Members, err = listMemberships(ctx, db, `WHERE em.ensemble_id = ?`, id)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListEnsembles returns every ensemble ordered by name, with members.
func ListEnsembles(ctx context.Context, db *sql.DB) ([]model.Ensemble, error) {
	ensembles, err := queryEnsembles(ctx, db,
		`SELECT `+ensembleColumns+` FROM ensembles ORDER BY name`)
	if err != nil {
		return nil, err
	}

	memberships, err := listMemberships(ctx, db, "")
	if err != nil {
		return nil, err
	}
	byEnsemble := make(map[int64][]model.Membership)
	for _, ms := range memberships {
		byEnsemble[ms.EnsembleID] = append(byEnsemble[ms.EnsembleID], ms)
	}
	for i := range ensembles {
		ensembles[i].Members = byEnsemble[ensembles[i].ID]
	}
	return ensembles, nil
}

// SearchEnsembles returns up to limit ensembles whose name contains q.
func SearchEnsembles(ctx context.Context, db *sql.DB, q string, limit int) ([]model.Ensemble, error) {
	if utf8.RuneCountInString(q) < MinSearchLength {
		return nil, model.Invalid("search query must be at least %d characters", MinSearchLength)
	}
	return queryEnsembles(ctx, db,
		`SELECT `+ensembleColumns+` FROM ensembles
		 WHERE fold(name) LIKE ? ESCAPE '\' ORDER BY name LIMIT ?`,
		likePattern(q), limit)
}

func queryEnsembles(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.Ensemble, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing ensembles: %w", err)
	}
	defer rows.Close()

	ensembles := []model.Ensemble{}
	for rows.Next() {
		e, err := scanEnsemble(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ensemble: %w", err)
		}
		ensembles = append(ensembles, *e)
	}
	return ensembles, rows.Err()
}

// EnsembleAlbums returns the albums released by an ensemble.
func EnsembleAlbums(ctx context.Context, db *sql.DB, ensembleID int64) ([]model.AlbumSummary, error) {
	if err := requireEnsemble(ctx, db, ensembleID); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, title, catalog_number FROM albums
		 WHERE ensemble_id = ? ORDER BY release_date, title`, ensembleID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing ensemble albums: %w", err)
	}
	defer rows.Close()

	albums := []model.AlbumSummary{}
	for rows.Next() {
		var a model.AlbumSummary
		if err := rows.Scan(&a.ID, &a.Title, &a.CatalogNumber); err != nil {
			return nil, fmt.Errorf("scanning album: %w", err)
		}
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

// CountEnsembleCompositions returns the number of distinct compositions
// recorded on the ensemble's albums.
func CountEnsembleCompositions(ctx context.Context, db *sql.DB, ensembleID int64) (int, error) {
	if err := requireEnsemble(ctx, db, ensembleID); err != nil {
		return 0, err
	}

	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT r.composition_id)
		 FROM albums a
		 JOIN tracks t ON t.album_id = a.id
		 JOIN recordings r ON r.id = t.recording_id
		 WHERE a.ensemble_id = ?`, ensembleID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting ensemble compositions: %w", err)
	}
	return n, nil
}

func requireEnsemble(ctx context.Context, db *sql.DB, id int64) error {
	var exists int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM ensembles WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return model.NotFound("ensemble", id)
	}
	if err != nil {
		return fmt.Errorf("checking ensemble: %w", err)
	}
	return nil
}
