package store

import (
	"context"
	"database/sql"
	"fmt"
	"unicode/utf8"

	"github.com/goccy/go-json"

	"github.com/danicaoo/musicShop/internal/model"
)

const musicianColumns = `id, name, birth_date, country, bio, roles, created_at`

func scanMusician(row interface{ Scan(...any) error }) (*model.Musician, error) {
	m := &model.Musician{}
	var birth sql.NullTime
	var country, bio sql.NullString
	var roles string
	if err := row.Scan(&m.ID, &m.Name, &birth, &country, &bio, &roles, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.BirthDate = timePtr(birth)
	m.Country = country.String
	m.Bio = bio.String
	if err := json.Unmarshal([]byte(roles), &m.Roles); err != nil {
		return nil, fmt.Errorf("decoding musician roles: %w", err)
	}
	if m.Roles == nil {
		m.Roles = []string{}
	}
	return m, nil
}

func encodeRoles(roles []string) (string, error) {
	if roles == nil {
		roles = []string{}
	}
	b, err := json.Marshal(roles)
	if err != nil {
		return "", fmt.Errorf("encoding musician roles: %w", err)
	}
	return string(b), nil
}

// CreateMusician adds a musician to the catalog.
func CreateMusician(ctx context.Context, db *sql.DB, m model.Musician) (*model.Musician, error) {
	if m.Name == "" {
		return nil, model.Invalid("name is required")
	}
	if err := model.ValidateMusicianRoles(m.Roles); err != nil {
		return nil, err
	}
	roles, err := encodeRoles(m.Roles)
	if err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO musicians (name, birth_date, country, bio, roles) VALUES (?, ?, ?, ?, ?)`,
		m.Name, nullTime(m.BirthDate), nullString(m.Country), nullString(m.Bio), roles,
	)
	if isUniqueViolation(err) {
		return nil, &model.ConflictError{Message: fmt.Sprintf("musician %q already exists", m.Name)}
	}
	if err != nil {
		return nil, fmt.Errorf("creating musician: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting musician id: %w", err)
	}
	return GetMusician(ctx, db, id)
}

// GetMusician returns a musician with their ensemble memberships.
func GetMusician(ctx context.Context, db *sql.DB, id int64) (*model.Musician, error) {
	m, err := scanMusician(db.QueryRowContext(ctx,
		`SELECT `+musicianColumns+` FROM musicians WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting musician: %w", err)
	}

	m.Ensembles, err = listMemberships(ctx, db, `WHERE em.musician_id = ?`, id)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMusicians returns every musician ordered by name, with memberships.
func ListMusicians(ctx context.Context, db *sql.DB) ([]model.Musician, error) {
	musicians, err := queryMusicians(ctx, db,
		`SELECT `+musicianColumns+` FROM musicians ORDER BY name`)
	if err != nil {
		return nil, err
	}

	memberships, err := listMemberships(ctx, db, "")
	if err != nil {
		return nil, err
	}
	byMusician := make(map[int64][]model.Membership)
	for _, ms := range memberships {
		byMusician[ms.MusicianID] = append(byMusician[ms.MusicianID], ms)
	}
	for i := range musicians {
		musicians[i].Ensembles = byMusician[musicians[i].ID]
	}
	return musicians, nil
}

// SearchMusicians returns up to limit musicians whose name contains q.
func SearchMusicians(ctx context.Context, db *sql.DB, q string, limit int) ([]model.Musician, error) {
	if utf8.RuneCountInString(q) < MinSearchLength {
		return nil, model.Invalid("search query must be at least %d characters", MinSearchLength)
	}
	return queryMusicians(ctx, db,
		`SELECT `+musicianColumns+` FROM musicians
		 WHERE fold(name) LIKE ? ESCAPE '\' ORDER BY name LIMIT ?`,
		likePattern(q), limit)
}

func queryMusicians(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.Musician, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing musicians: %w", err)
	}
	defer rows.Close()

	musicians := []model.Musician{}
	for rows.Next() {
		m, err := scanMusician(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning musician: %w", err)
		}
		musicians = append(musicians, *m)
	}
	return musicians, rows.Err()
}

// UpdateMusician applies a partial update and returns the result.
func UpdateMusician(ctx context.Context, db *sql.DB, id int64, p model.MusicianPatch) (*model.Musician, error) {
	m, err := GetMusician(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, model.NotFound("musician", id)
	}

	if p.Name != nil {
		if *p.Name == "" {
			return nil, model.Invalid("name cannot be empty")
		}
		m.Name = *p.Name
	}
	if p.BirthDate != nil {
		m.BirthDate = p.BirthDate
	}
	if p.Country != nil {
		m.Country = *p.Country
	}
	if p.Bio != nil {
		m.Bio = *p.Bio
	}
	if p.Roles != nil {
		if err := model.ValidateMusicianRoles(p.Roles); err != nil {
			return nil, err
		}
		m.Roles = p.Roles
	}
	roles, err := encodeRoles(m.Roles)
	if err != nil {
		return nil, err
	}

	_, err = db.ExecContext(ctx,
		`UPDATE musicians SET name = ?, birth_date = ?, country = ?, bio = ?, roles = ? WHERE id = ?`,
		m.Name, nullTime(m.BirthDate), nullString(m.Country), nullString(m.Bio), roles, id,
	)
	if isUniqueViolation(err) {
		return nil, &model.ConflictError{Message: fmt.Sprintf("musician %q already exists", m.Name)}
	}
	if err != nil {
		return nil, fmt.Errorf("updating musician: %w", err)
	}
	return GetMusician(ctx, db, id)
}

// listMemberships loads ensemble memberships matching the where clause.
func listMemberships(ctx context.Context, db *sql.DB, where string, args ...any) ([]model.Membership, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT em.ensemble_id, em.musician_id, em.role, em.start_date, em.end_date,
		        e.name, m.name
		 FROM ensemble_members em
		 JOIN ensembles e ON e.id = em.ensemble_id
		 JOIN musicians m ON m.id = em.musician_id
		 `+where+`
		 ORDER BY em.start_date, e.name`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	defer rows.Close()

	var out []model.Membership
	for rows.Next() {
		var ms model.Membership
		var end sql.NullTime
		if err := rows.Scan(&ms.EnsembleID, &ms.MusicianID, &ms.Role, &ms.StartDate, &end,
			&ms.EnsembleName, &ms.MusicianName); err != nil {
			return nil, fmt.Errorf("scanning membership: %w", err)
		}
		ms.EndDate = timePtr(end)
		out = append(out, ms)
	}
	return out, rows.Err()
}
