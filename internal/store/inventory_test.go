package store

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/danicaoo/musicShop/internal/db"
	"github.com/danicaoo/musicShop/internal/model"
)

func TestListInventory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustAlbum(t, database, "INV-1", "10", 3)
	mustAlbum(t, database, "INV-2", "12.5", 7)

	items, err := ListInventory(ctx, database)
	if err != nil {
		t.Fatalf("ListInventory: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(items))
	}
	if items[1].CatalogNumber != "INV-2" || items[1].Unsold != 7 {
		t.Errorf("unexpected row %+v", items[1])
	}
}

func TestAdjustInventory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := mustAlbum(t, database, "ADJ-1", "10", 10)
	if _, err := RecordSale(ctx, database, a.Inventory.ID, 4, day(2024, 2, 1), nil); err != nil {
		t.Fatal(err)
	}

	retail := decimal.RequireFromString("11.99")
	unsold := 50
	inv, err := AdjustInventory(ctx, database, a.Inventory.ID, model.InventoryAdjustment{RetailPrice: &retail, Unsold: &unsold})
	if err != nil {
		t.Fatalf("AdjustInventory: %v", err)
	}
	if inv.Unsold != 50 || !inv.RetailPrice.Equal(retail) {
		t.Errorf("adjustment not applied: %+v", inv)
	}
	if inv.CurrentYearSales != 4 {
		t.Errorf("sales counter changed to %d", inv.CurrentYearSales)
	}
}

func TestAdjustInventoryRejects(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a := mustAlbum(t, database, "ADJ-2", "10", 10)

	negative := -3
	_, err := AdjustInventory(ctx, database, a.Inventory.ID, model.InventoryAdjustment{Unsold: &negative})
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	if inv := mustInventory(t, database, a.Inventory.ID); inv.Unsold != 10 {
		t.Errorf("rejected adjustment changed unsold to %d", inv.Unsold)
	}

	fine := decimal.RequireFromString("1.23456")
	_, err = AdjustInventory(ctx, database, a.Inventory.ID, model.InventoryAdjustment{WholesalePrice: &fine})
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for sub-cent price, got %v", err)
	}
	if inv := mustInventory(t, database, a.Inventory.ID); !inv.WholesalePrice.Equal(decimal.RequireFromString("5.00")) {
		t.Errorf("rejected adjustment changed wholesale price to %s", inv.WholesalePrice)
	}

	if _, err := AdjustInventory(ctx, database, a.Inventory.ID, model.InventoryAdjustment{}); err == nil {
		t.Error("expected error for empty adjustment")
	}

	ten := 10
	if _, err := AdjustInventory(ctx, database, 999, model.InventoryAdjustment{Unsold: &ten}); !model.IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestPricesStoredToTheCent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := CreateAlbum(ctx, database, model.NewAlbum{
		Title:          "Too Precise",
		CatalogNumber:  "PRC-1",
		ReleaseDate:    day(2021, 6, 1),
		WholesalePrice: decimal.RequireFromString("5.00"),
		RetailPrice:    decimal.RequireFromString("9.999"),
		InitialStock:   1,
	})
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if available, err := CatalogNumberAvailable(ctx, database, "PRC-1", 0); err != nil || !available {
		t.Errorf("rejected album was stored: available=%v err=%v", available, err)
	}

	a := mustAlbum(t, database, "PRC-2", "12.5", 1)
	var wholesale, retail string
	err = database.QueryRowContext(ctx,
		`SELECT wholesale_price, retail_price FROM inventory WHERE id = ?`, a.Inventory.ID,
	).Scan(&wholesale, &retail)
	if err != nil {
		t.Fatalf("reading prices: %v", err)
	}
	if wholesale != "5.00" || retail != "12.50" {
		t.Errorf("stored prices = %s / %s, want 5.00 / 12.50", wholesale, retail)
	}
}
