package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danicaoo/musicShop/internal/model"
)

const inventorySelect = `SELECT i.id, i.album_id, i.wholesale_price, i.retail_price,
	       i.last_year_sales, i.current_year_sales, i.unsold, i.updated_at,
	       a.title, a.catalog_number, COALESCE(e.name, ''), COALESCE(m.name, '')
	FROM inventory i
	JOIN albums a ON a.id = i.album_id
	LEFT JOIN ensembles e ON e.id = a.ensemble_id
	LEFT JOIN musicians m ON m.id = a.musician_id`

func scanInventory(row interface{ Scan(...any) error }) (*model.Inventory, error) {
	inv := &model.Inventory{}
	if err := row.Scan(&inv.ID, &inv.AlbumID, &inv.WholesalePrice, &inv.RetailPrice,
		&inv.LastYearSales, &inv.CurrentYearSales, &inv.Unsold, &inv.UpdatedAt,
		&inv.AlbumTitle, &inv.CatalogNumber, &inv.EnsembleName, &inv.MusicianName); err != nil {
		return nil, err
	}
	return inv, nil
}

// ListInventory returns the ledger of every album.
func ListInventory(ctx context.Context, db *sql.DB) ([]model.Inventory, error) {
	rows, err := db.QueryContext(ctx, inventorySelect+` ORDER BY a.title, i.id`)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	defer rows.Close()

	items := []model.Inventory{}
	for rows.Next() {
		inv, err := scanInventory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning inventory: %w", err)
		}
		items = append(items, *inv)
	}
	return items, rows.Err()
}

// GetInventory returns an inventory by ID.
func GetInventory(ctx context.Context, db *sql.DB, id int64) (*model.Inventory, error) {
	inv, err := scanInventory(db.QueryRowContext(ctx, inventorySelect+` WHERE i.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting inventory: %w", err)
	}
	return inv, nil
}

// GetInventoryByAlbum returns the inventory of an album.
func GetInventoryByAlbum(ctx context.Context, db *sql.DB, albumID int64) (*model.Inventory, error) {
	inv, err := scanInventory(db.QueryRowContext(ctx, inventorySelect+` WHERE i.album_id = ?`, albumID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting album inventory: %w", err)
	}
	return inv, nil
}

// AdjustInventory overwrites prices or the unsold count of an inventory.
// Sales counters are never touched here.
func AdjustInventory(ctx context.Context, db *sql.DB, id int64, adj model.InventoryAdjustment) (*model.Inventory, error) {
	if adj.Empty() {
		return nil, model.Invalid("nothing to update")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inv, err := scanInventory(tx.QueryRowContext(ctx, inventorySelect+` WHERE i.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, model.NotFound("inventory", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting inventory: %w", err)
	}

	if err := inv.Adjust(adj); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE inventory SET wholesale_price = ?, retail_price = ?, unsold = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		inv.WholesalePrice.StringFixed(model.PricePlaces), inv.RetailPrice.StringFixed(model.PricePlaces), inv.Unsold, id,
	)
	if err != nil {
		return nil, fmt.Errorf("adjusting inventory: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing adjustment: %w", err)
	}
	return GetInventory(ctx, db, id)
}
