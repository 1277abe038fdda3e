package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danicaoo/musicShop/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustMusician(t *testing.T, database *sql.DB, name string, roles ...string) *model.Musician {
	t.Helper()
	m, err := CreateMusician(context.Background(), database, model.Musician{Name: name, Roles: roles})
	if err != nil {
		t.Fatalf("CreateMusician(%s): %v", name, err)
	}
	return m
}

func mustRecording(t *testing.T, database *sql.DB, title string, seconds int) *model.Recording {
	t.Helper()
	ctx := context.Background()
	c, err := CreateComposition(ctx, database, model.Composition{Title: title, DurationSeconds: seconds})
	if err != nil {
		t.Fatalf("CreateComposition(%s): %v", title, err)
	}
	r, err := CreateRecording(ctx, database, model.Recording{CompositionID: c.ID, RecordingDate: day(2020, 3, 1), Studio: "Abbey Road"})
	if err != nil {
		t.Fatalf("CreateRecording: %v", err)
	}
	return r
}

// mustAlbum creates an album with the given retail price and stock and
// returns it with its inventory loaded.
func mustAlbum(t *testing.T, database *sql.DB, catalog, retail string, stock int) *model.Album {
	t.Helper()
	a, err := CreateAlbum(context.Background(), database, model.NewAlbum{
		Title:          "Album " + catalog,
		CatalogNumber:  catalog,
		ReleaseDate:    day(2021, 6, 1),
		WholesalePrice: decimal.RequireFromString("5.00"),
		RetailPrice:    decimal.RequireFromString(retail),
		InitialStock:   stock,
	})
	if err != nil {
		t.Fatalf("CreateAlbum(%s): %v", catalog, err)
	}
	if a.Inventory == nil {
		t.Fatalf("album %s has no inventory", catalog)
	}
	return a
}

func mustInventory(t *testing.T, database *sql.DB, id int64) *model.Inventory {
	t.Helper()
	inv, err := GetInventory(context.Background(), database, id)
	if err != nil {
		t.Fatalf("GetInventory: %v", err)
	}
	if inv == nil {
		t.Fatalf("inventory %d not found", id)
	}
	return inv
}
