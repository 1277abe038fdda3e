package store

import (
	"context"
	"database/sql"
	"fmt"
	"unicode/utf8"

	"github.com/danicaoo/musicShop/internal/model"
)

// Paging limits for album lists.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

const albumSelect = `SELECT a.id, a.title, a.catalog_number, a.release_date, a.musician_id, a.ensemble_id,
	       a.cover IS NOT NULL, a.created_at, a.updated_at,
	       COALESCE(m.name, ''), COALESCE(e.name, '')
	FROM albums a
	LEFT JOIN musicians m ON m.id = a.musician_id
	LEFT JOIN ensembles e ON e.id = a.ensemble_id`

func scanAlbum(row interface{ Scan(...any) error }) (*model.Album, error) {
	a := &model.Album{}
	var musicianID, ensembleID sql.NullInt64
	if err := row.Scan(&a.ID, &a.Title, &a.CatalogNumber, &a.ReleaseDate, &musicianID, &ensembleID,
		&a.HasCover, &a.CreatedAt, &a.UpdatedAt, &a.MusicianName, &a.EnsembleName); err != nil {
		return nil, err
	}
	a.MusicianID = int64Ptr(musicianID)
	a.EnsembleID = int64Ptr(ensembleID)
	return a, nil
}

// CreateAlbum creates an album, its tracks and its inventory ledger in a
// single transaction. Nothing is written when any referenced musician,
// ensemble or recording is missing.
func CreateAlbum(ctx context.Context, db *sql.DB, na model.NewAlbum) (*model.Album, error) {
	if err := na.Validate(); err != nil {
		return nil, err
	}
	inv, err := model.NewInventory(na.WholesalePrice, na.RetailPrice, na.InitialStock)
	if err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := requireOwner(ctx, tx, na.MusicianID, na.EnsembleID); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO albums (title, catalog_number, release_date, musician_id, ensemble_id)
		 VALUES (?, ?, ?, ?, ?)`,
		na.Title, na.CatalogNumber, nullTime(&na.ReleaseDate), na.MusicianID, na.EnsembleID,
	)
	if isUniqueViolation(err) {
		return nil, catalogNumberTaken(na.CatalogNumber)
	}
	if err != nil {
		return nil, fmt.Errorf("creating album: %w", err)
	}
	albumID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting album id: %w", err)
	}

	for _, t := range na.Tracks {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM recordings WHERE id = ?`, t.RecordingID).Scan(&exists)
		if err == sql.ErrNoRows {
			return nil, model.NotFound("recording", t.RecordingID)
		}
		if err != nil {
			return nil, fmt.Errorf("checking recording: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO tracks (album_id, position, recording_id) VALUES (?, ?, ?)`,
			albumID, t.Position, t.RecordingID,
		)
		if err != nil {
			return nil, fmt.Errorf("adding track %d: %w", t.Position, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO inventory (album_id, wholesale_price, retail_price, unsold) VALUES (?, ?, ?, ?)`,
		albumID, inv.WholesalePrice.StringFixed(model.PricePlaces), inv.RetailPrice.StringFixed(model.PricePlaces), inv.Unsold,
	)
	if err != nil {
		return nil, fmt.Errorf("creating inventory: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing album: %w", err)
	}
	return GetAlbum(ctx, db, albumID)
}

// requireOwner checks that the referenced musician or ensemble exists.
func requireOwner(ctx context.Context, tx *sql.Tx, musicianID, ensembleID *int64) error {
	var exists int
	if musicianID != nil {
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM musicians WHERE id = ?`, *musicianID).Scan(&exists)
		if err == sql.ErrNoRows {
			return model.NotFound("musician", *musicianID)
		}
		if err != nil {
			return fmt.Errorf("checking musician: %w", err)
		}
	}
	if ensembleID != nil {
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM ensembles WHERE id = ?`, *ensembleID).Scan(&exists)
		if err == sql.ErrNoRows {
			return model.NotFound("ensemble", *ensembleID)
		}
		if err != nil {
			return fmt.Errorf("checking ensemble: %w", err)
		}
	}
	return nil
}

func catalogNumberTaken(number string) error {
	return &model.ConflictError{Message: fmt.Sprintf("catalog number %q is already in use", number)}
}

// GetAlbum returns an album with its tracks and inventory.
func GetAlbum(ctx context.Context, db *sql.DB, id int64) (*model.Album, error) {
	a, err := scanAlbum(db.QueryRowContext(ctx, albumSelect+` WHERE a.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting album: %w", err)
	}

	if a.Tracks, err = listTracks(ctx, db, id); err != nil {
		return nil, err
	}
	if a.Inventory, err = GetInventoryByAlbum(ctx, db, id); err != nil {
		return nil, err
	}
	return a, nil
}

func listTracks(ctx context.Context, db *sql.DB, albumID int64) ([]model.Track, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT t.album_id, t.position, t.recording_id, c.id, c.title, c.duration_seconds, COALESCE(r.studio, '')
		 FROM tracks t
		 JOIN recordings r ON r.id = t.recording_id
		 JOIN compositions c ON c.id = r.composition_id
		 WHERE t.album_id = ?
		 ORDER BY t.position`, albumID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tracks: %w", err)
	}
	defer rows.Close()

	tracks := []model.Track{}
	for rows.Next() {
		var t model.Track
		if err := rows.Scan(&t.AlbumID, &t.Position, &t.RecordingID, &t.CompositionID,
			&t.CompositionTitle, &t.DurationSeconds, &t.Studio); err != nil {
			return nil, fmt.Errorf("scanning track: %w", err)
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// ListAlbums returns one page of albums ordered by release date, newest first.
func ListAlbums(ctx context.Context, db *sql.DB, page, pageSize int) ([]model.Album, model.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM albums`).Scan(&total); err != nil {
		return nil, model.Pagination{}, fmt.Errorf("counting albums: %w", err)
	}

	albums, err := queryAlbums(ctx, db,
		albumSelect+` ORDER BY a.release_date DESC, a.id DESC LIMIT ? OFFSET ?`,
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	return albums, model.NewPagination(page, pageSize, total), nil
}

// SearchAlbums matches q against album titles and catalog numbers.
func SearchAlbums(ctx context.Context, db *sql.DB, q string, limit int) ([]model.Album, error) {
	if utf8.RuneCountInString(q) < MinSearchLength {
		return nil, model.Invalid("search query must be at least %d characters", MinSearchLength)
	}
	pattern := likePattern(q)
	return queryAlbums(ctx, db,
		albumSelect+` WHERE fold(a.title) LIKE ? ESCAPE '\' OR fold(a.catalog_number) LIKE ? ESCAPE '\'
		 ORDER BY a.title LIMIT ?`,
		pattern, pattern, limit)
}

func queryAlbums(ctx context.Context, db *sql.DB, query string, args ...any) ([]model.Album, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing albums: %w", err)
	}
	defer rows.Close()

	albums := []model.Album{}
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning album: %w", err)
		}
		albums = append(albums, *a)
	}
	return albums, rows.Err()
}

// UpdateAlbum applies a partial update to an album's own fields.
func UpdateAlbum(ctx context.Context, db *sql.DB, id int64, p model.AlbumPatch) (*model.Album, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	a, err := scanAlbum(tx.QueryRowContext(ctx, albumSelect+` WHERE a.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, model.NotFound("album", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting album: %w", err)
	}

	if err := p.Apply(a); err != nil {
		return nil, err
	}
	if err := requireOwner(ctx, tx, a.MusicianID, a.EnsembleID); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE albums SET title = ?, catalog_number = ?, release_date = ?, musician_id = ?, ensemble_id = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		a.Title, a.CatalogNumber, nullTime(&a.ReleaseDate), a.MusicianID, a.EnsembleID, id,
	)
	if isUniqueViolation(err) {
		return nil, catalogNumberTaken(a.CatalogNumber)
	}
	if err != nil {
		return nil, fmt.Errorf("updating album: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing album update: %w", err)
	}
	return GetAlbum(ctx, db, id)
}

// CatalogNumberAvailable reports whether number is unused. An album with
// excludeID is ignored so an album can keep its own number on update.
func CatalogNumberAvailable(ctx context.Context, db *sql.DB, number string, excludeID int64) (bool, error) {
	if number == "" {
		return false, model.Invalid("catalog number is required")
	}
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM albums WHERE catalog_number = ? AND id != ?`, number, excludeID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking catalog number: %w", err)
	}
	return n == 0, nil
}

// TopSelling returns the albums with the most sales in the current year.
func TopSelling(ctx context.Context, db *sql.DB, limit int) ([]model.TopSeller, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT i.id, a.id, a.title, a.catalog_number, COALESCE(e.name, ''), COALESCE(m.name, ''),
		        i.current_year_sales, i.last_year_sales, i.retail_price, i.wholesale_price, i.unsold
		 FROM inventory i
		 JOIN albums a ON a.id = i.album_id
		 LEFT JOIN ensembles e ON e.id = a.ensemble_id
		 LEFT JOIN musicians m ON m.id = a.musician_id
		 ORDER BY i.current_year_sales DESC, a.title
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing top sellers: %w", err)
	}
	defer rows.Close()

	top := []model.TopSeller{}
	for rows.Next() {
		var t model.TopSeller
		if err := rows.Scan(&t.InventoryID, &t.AlbumID, &t.AlbumTitle, &t.CatalogNumber, &t.EnsembleName,
			&t.MusicianName, &t.CurrentYearSales, &t.LastYearSales, &t.RetailPrice, &t.WholesalePrice,
			&t.Unsold); err != nil {
			return nil, fmt.Errorf("scanning top seller: %w", err)
		}
		top = append(top, t)
	}
	return top, rows.Err()
}

// SetAlbumCover stores the cover image of an album.
func SetAlbumCover(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE albums SET cover = ?, cover_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting album cover: %w", err)
	}
	return requireRow(res, "album", id)
}

// GetAlbumCover returns an album's cover image and MIME type. The image is
// nil when the album has no cover.
func GetAlbumCover(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT cover, cover_mime FROM albums WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", model.NotFound("album", id)
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting album cover: %w", err)
	}
	return image, mime.String, nil
}
