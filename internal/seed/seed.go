// Package seed loads a small demo catalog with sales history.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danicaoo/musicShop/internal/logging"
	"github.com/danicaoo/musicShop/internal/model"
	"github.com/danicaoo/musicShop/internal/store"
)

// Summary counts what Load created.
type Summary struct {
	Skipped      bool
	Musicians    int
	Ensembles    int
	Compositions int
	Recordings   int
	Albums       int
	Sales        int
	UnitsSold    int
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Load creates the demo catalog unless albums already exist. Sales go
// through the sale recorder so the inventory counters match the sale rows.
func Load(ctx context.Context, db *sql.DB) (*Summary, error) {
	_, page, err := store.ListAlbums(ctx, db, 1, 1)
	if err != nil {
		return nil, err
	}
	if page.TotalItems > 0 {
		logging.Info().Int("albums", page.TotalItems).Msg("catalog already has albums, skipping seed")
		return &Summary{Skipped: true}, nil
	}

	s := &Summary{}

	singer, err := store.CreateMusician(ctx, db, model.Musician{
		Name:      "Ivan Ivanov",
		BirthDate: ptr(date(1980, time.January, 1)),
		Country:   "Russia",
		Roles:     []string{model.MusicianVocalist, model.MusicianGuitarist},
	})
	if err != nil {
		return nil, fmt.Errorf("seeding musicians: %w", err)
	}
	bassist, err := store.CreateMusician(ctx, db, model.Musician{
		Name:      "Petr Petrov",
		BirthDate: ptr(date(1985, time.June, 15)),
		Country:   "Russia",
		Roles:     []string{model.MusicianBassist},
	})
	if err != nil {
		return nil, fmt.Errorf("seeding musicians: %w", err)
	}
	s.Musicians = 2

	formed := date(2000, time.January, 1)
	band, err := store.CreateEnsemble(ctx, db, model.Ensemble{
		Name:          "The Wind",
		FormationDate: formed,
		Type:          model.EnsembleBand,
		Members: []model.Membership{
			{MusicianID: singer.ID, Role: "lead vocals", StartDate: formed},
			{MusicianID: bassist.ID, Role: "bass", StartDate: formed},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("seeding ensemble: %w", err)
	}
	s.Ensembles = 1

	genres := []string{"Rock", "Pop", "Classical"}
	recordings := make([]int64, 0, 5)
	for i := 1; i <= 5; i++ {
		year := 2000 + i
		c, err := store.CreateComposition(ctx, db, model.Composition{
			Title:           fmt.Sprintf("Composition %d", i),
			DurationSeconds: 180 + i*30,
			CreationYear:    &year,
			Genre:           genres[i%3],
		})
		if err != nil {
			return nil, fmt.Errorf("seeding compositions: %w", err)
		}
		s.Compositions++

		r, err := store.CreateRecording(ctx, db, model.Recording{
			CompositionID: c.ID,
			RecordingDate: date(2020, time.Month(i), i),
			Studio:        fmt.Sprintf("Studio %d", i),
		})
		if err != nil {
			return nil, fmt.Errorf("seeding recordings: %w", err)
		}
		s.Recordings++
		recordings = append(recordings, r.ID)
	}

	solo, err := store.CreateAlbum(ctx, db, model.NewAlbum{
		Title:         "Solo Album",
		CatalogNumber: "SOLO-001",
		ReleaseDate:   date(2022, time.January, 15),
		MusicianID:    &singer.ID,
		Tracks: []model.TrackInput{
			{Position: 1, RecordingID: recordings[0]},
			{Position: 2, RecordingID: recordings[1]},
		},
		WholesalePrice: decimal.RequireFromString("5.99"),
		RetailPrice:    decimal.RequireFromString("9.99"),
		InitialStock:   250,
	})
	if err != nil {
		return nil, fmt.Errorf("seeding solo album: %w", err)
	}
	group, err := store.CreateAlbum(ctx, db, model.NewAlbum{
		Title:         "Band Album",
		CatalogNumber: "BAND-001",
		ReleaseDate:   date(2023, time.April, 20),
		EnsembleID:    &band.ID,
		Tracks: []model.TrackInput{
			{Position: 1, RecordingID: recordings[2]},
			{Position: 2, RecordingID: recordings[3]},
			{Position: 3, RecordingID: recordings[4]},
		},
		WholesalePrice: decimal.RequireFromString("7.99"),
		RetailPrice:    decimal.RequireFromString("12.99"),
		InitialStock:   350,
	})
	if err != nil {
		return nil, fmt.Errorf("seeding band album: %w", err)
	}
	s.Albums = 2

	batches := []struct {
		inventoryID int64
		count       int
		maxQuantity int
	}{
		{solo.Inventory.ID, 15, 5},
		{group.Inventory.ID, 25, 3},
	}
	for _, b := range batches {
		for i := 0; i < b.count; i++ {
			quantity := i%b.maxQuantity + 1
			soldAt := time.Date(2023, time.Month(i%12+1), (i*7)%28+1, 10+i%8, 0, 0, 0, time.UTC)
			if _, err := store.RecordSale(ctx, db, b.inventoryID, quantity, soldAt, nil); err != nil {
				return nil, fmt.Errorf("seeding sales: %w", err)
			}
			s.Sales++
			s.UnitsSold += quantity
		}
	}

	logging.Info().
		Int("albums", s.Albums).
		Int("sales", s.Sales).
		Int("units", s.UnitsSold).
		Msg("demo catalog loaded")
	return s, nil
}

func ptr[T any](v T) *T { return &v }
