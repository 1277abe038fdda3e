package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danicaoo/musicShop/internal/db"
	"github.com/danicaoo/musicShop/internal/model"
)

// RecordSale records a sale of quantity units from an inventory and moves
// them from unsold stock to current-year sales. The stock check, the ledger
// update and the sale row are written in one transaction; the connection
// takes the write lock at BEGIN, so concurrent sales of the same album are
// serialized and cannot oversell. A zero soldAt means now.
func RecordSale(ctx context.Context, database *sql.DB, inventoryID int64, quantity int, soldAt time.Time, soldBy *int64) (*model.SaleReceipt, error) {
	if quantity < 1 {
		return nil, model.Invalid("quantity must be at least 1")
	}
	if soldAt.IsZero() {
		soldAt = time.Now()
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	inv := &model.Inventory{ID: inventoryID}
	err = tx.QueryRowContext(ctx,
		`SELECT unsold, current_year_sales FROM inventory WHERE id = ?`, inventoryID,
	).Scan(&inv.Unsold, &inv.CurrentYearSales)
	if err == sql.ErrNoRows {
		return nil, model.NotFound("inventory", inventoryID)
	}
	if err != nil {
		return nil, fmt.Errorf("checking stock: %w", err)
	}
	preUnsold := inv.Unsold

	if err := inv.ApplySale(quantity); err != nil {
		return nil, err
	}

	// The guard keeps the decrement safe even without the write lock.
	res, err := tx.ExecContext(ctx,
		`UPDATE inventory
		 SET unsold = unsold - ?, current_year_sales = current_year_sales + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND unsold >= ?`,
		quantity, quantity, inventoryID, quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("updating inventory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking inventory update: %w", err)
	}
	if n == 0 {
		return nil, &model.InsufficientStockError{Requested: quantity, Available: preUnsold}
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO sales (inventory_id, quantity, sale_date, sold_by) VALUES (?, ?, ?, ?)`,
		inventoryID, quantity, db.Timestamp(soldAt), soldBy,
	)
	if err != nil {
		return nil, fmt.Errorf("recording sale: %w", err)
	}
	saleID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting sale id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing sale: %w", err)
	}

	sale := model.Sale{
		ID:          saleID,
		InventoryID: inventoryID,
		Quantity:    quantity,
		SaleDate:    soldAt.UTC().Truncate(time.Second),
		SoldBy:      soldBy,
	}
	return model.NewSaleReceipt(sale, preUnsold), nil
}

const saleDetailSelect = `SELECT s.id, s.inventory_id, s.quantity, s.sale_date, s.sold_by,
	       a.id, a.title, a.catalog_number, COALESCE(e.name, ''), COALESCE(m.name, ''), i.retail_price
	FROM sales s
	JOIN inventory i ON i.id = s.inventory_id
	JOIN albums a ON a.id = i.album_id
	LEFT JOIN ensembles e ON e.id = a.ensemble_id
	LEFT JOIN musicians m ON m.id = a.musician_id`

func querySaleDetails(ctx context.Context, database *sql.DB, query string, args ...any) ([]model.SaleDetail, error) {
	rows, err := database.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	defer rows.Close()

	sales := []model.SaleDetail{}
	for rows.Next() {
		var s model.SaleDetail
		var soldBy sql.NullInt64
		if err := rows.Scan(&s.ID, &s.InventoryID, &s.Quantity, &s.SaleDate, &soldBy,
			&s.AlbumID, &s.AlbumTitle, &s.CatalogNumber, &s.EnsembleName, &s.MusicianName,
			&s.RetailPrice); err != nil {
			return nil, fmt.Errorf("scanning sale: %w", err)
		}
		s.SoldBy = int64Ptr(soldBy)
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// ListSales returns the most recent sales.
func ListSales(ctx context.Context, database *sql.DB, limit int) ([]model.SaleDetail, error) {
	return querySaleDetails(ctx, database,
		saleDetailSelect+` ORDER BY s.sale_date DESC, s.id DESC LIMIT ?`, limit)
}

// SalesReport returns the sales matching f with their totals. Revenue is
// computed with each album's current retail price.
func SalesReport(ctx context.Context, database *sql.DB, f model.ReportFilter) (*model.SalesReport, error) {
	if f.MinQuantity < 1 {
		f.MinQuantity = model.DefaultMinQuantity
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, model.Invalid("start date must not be after end date")
	}

	query := saleDetailSelect + ` WHERE s.quantity >= ?`
	args := []any{f.MinQuantity}
	if f.From != nil {
		query += ` AND s.sale_date >= ?`
		args = append(args, db.Timestamp(*f.From))
	}
	if f.To != nil {
		query += ` AND s.sale_date <= ?`
		args = append(args, db.Timestamp(*f.To))
	}
	query += ` ORDER BY s.sale_date DESC, s.id DESC`

	sales, err := querySaleDetails(ctx, database, query, args...)
	if err != nil {
		return nil, err
	}

	report := &model.SalesReport{Sales: sales}
	report.TotalSales, report.TotalRevenue = model.Totals(sales)
	return report, nil
}

// RolloverSales archives current-year sales into last-year sales for every
// inventory that sold something, and records an audit event. Only
// administrators may run it. It returns the number of inventories changed.
func RolloverSales(ctx context.Context, database *sql.DB, role string) (int64, error) {
	if role != model.RoleAdmin {
		return 0, &model.ForbiddenError{Operation: "yearly sales rollover"}
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE inventory
		 SET last_year_sales = current_year_sales, current_year_sales = 0, updated_at = CURRENT_TIMESTAMP
		 WHERE current_year_sales > 0`,
	)
	if err != nil {
		return 0, fmt.Errorf("rolling over sales: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rollover: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO yearly_reset_events (description) VALUES (?)`, model.ResetEventDescription,
	)
	if err != nil {
		return 0, fmt.Errorf("recording reset event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rollover: %w", err)
	}
	return affected, nil
}

// ListResetEvents returns the rollover audit trail, newest first.
func ListResetEvents(ctx context.Context, database *sql.DB) ([]model.ResetEvent, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT id, description, created_at FROM yearly_reset_events ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reset events: %w", err)
	}
	defer rows.Close()

	events := []model.ResetEvent{}
	for rows.Next() {
		var e model.ResetEvent
		if err := rows.Scan(&e.ID, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning reset event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
