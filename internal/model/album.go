package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Album is a released product. Each album owns exactly one inventory record.
type Album struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	CatalogNumber string     `json:"catalogNumber"`
	ReleaseDate   time.Time  `json:"releaseDate"`
	MusicianID    *int64     `json:"musicianId,omitempty"`
	EnsembleID    *int64     `json:"ensembleId,omitempty"`
	HasCover      bool       `json:"hasCover"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Tracks        []Track    `json:"tracks,omitempty"`
	Inventory     *Inventory `json:"inventory,omitempty"`

	// Joined fields (not always populated).
	MusicianName string `json:"musicianName,omitempty"`
	EnsembleName string `json:"ensembleName,omitempty"`
}

// Track places a recording at a position on an album.
type Track struct {
	AlbumID     int64 `json:"albumId"`
	Position    int   `json:"position"`
	RecordingID int64 `json:"recordingId"`

	// Joined fields (not always populated).
	CompositionID    int64  `json:"compositionId,omitempty"`
	CompositionTitle string `json:"compositionTitle,omitempty"`
	DurationSeconds  int    `json:"durationSeconds,omitempty"`
	Studio           string `json:"studio,omitempty"`
}

// NewAlbum is the input for creating an album with its initial inventory.
type NewAlbum struct {
	Title          string
	CatalogNumber  string
	ReleaseDate    time.Time
	MusicianID     *int64
	EnsembleID     *int64
	Tracks         []TrackInput
	WholesalePrice decimal.Decimal
	RetailPrice    decimal.Decimal
	InitialStock   int
}

// TrackInput is one track of a NewAlbum.
type TrackInput struct {
	Position    int
	RecordingID int64
}

// Validate checks the album shape before anything is written.
func (a *NewAlbum) Validate() error {
	if a.Title == "" || a.CatalogNumber == "" {
		return Invalid("title and catalog number are required")
	}
	if a.ReleaseDate.IsZero() {
		return Invalid("release date is required")
	}
	if a.MusicianID != nil && a.EnsembleID != nil {
		return Invalid("an album belongs to a musician or an ensemble, not both")
	}
	seen := make(map[int]bool, len(a.Tracks))
	for _, t := range a.Tracks {
		if t.Position < 1 {
			return Invalid("track position must be positive")
		}
		if seen[t.Position] {
			return Invalid("duplicate track position %d", t.Position)
		}
		seen[t.Position] = true
	}
	return nil
}

// AlbumPatch holds the fields of a partial album update. A non-nil
// MusicianID or EnsembleID of 0 clears the link.
type AlbumPatch struct {
	Title         *string
	CatalogNumber *string
	ReleaseDate   *time.Time
	MusicianID    *int64
	EnsembleID    *int64
}

// Apply merges the patch into a and checks the result.
func (p AlbumPatch) Apply(a *Album) error {
	if p.Title != nil {
		if *p.Title == "" {
			return Invalid("title cannot be empty")
		}
		a.Title = *p.Title
	}
	if p.CatalogNumber != nil {
		if *p.CatalogNumber == "" {
			return Invalid("catalog number cannot be empty")
		}
		a.CatalogNumber = *p.CatalogNumber
	}
	if p.ReleaseDate != nil {
		a.ReleaseDate = *p.ReleaseDate
	}
	if p.MusicianID != nil {
		a.MusicianID = nonZero(*p.MusicianID)
	}
	if p.EnsembleID != nil {
		a.EnsembleID = nonZero(*p.EnsembleID)
	}
	if a.MusicianID != nil && a.EnsembleID != nil {
		return Invalid("an album belongs to a musician or an ensemble, not both")
	}
	return nil
}

func nonZero(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// Pagination describes one page of a list.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
}

// NewPagination computes the page block for total items.
func NewPagination(page, pageSize, total int) Pagination {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return Pagination{CurrentPage: page, PageSize: pageSize, TotalPages: pages, TotalItems: total}
}

// TopSeller is one row of the best-selling albums list.
type TopSeller struct {
	InventoryID      int64           `json:"id"`
	AlbumID          int64           `json:"albumId"`
	AlbumTitle       string          `json:"albumTitle"`
	CatalogNumber    string          `json:"catalogNumber"`
	EnsembleName     string          `json:"ensembleName,omitempty"`
	MusicianName     string          `json:"musicianName,omitempty"`
	CurrentYearSales int             `json:"currentYearSales"`
	LastYearSales    int             `json:"lastYearSales"`
	RetailPrice      decimal.Decimal `json:"retailPrice"`
	WholesalePrice   decimal.Decimal `json:"wholesalePrice"`
	Unsold           int             `json:"unsold"`
}
