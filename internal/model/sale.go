package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Sale is an immutable record of units sold from one inventory.
type Sale struct {
	ID          int64     `json:"id"`
	InventoryID int64     `json:"inventoryId"`
	Quantity    int       `json:"quantity"`
	SaleDate    time.Time `json:"saleDate"`
	SoldBy      *int64    `json:"soldBy,omitempty"`
}

// SaleReceipt is the result of recording a sale.
type SaleReceipt struct {
	Sale
	Remaining int    `json:"remaining"`
	Message   string `json:"message"`
}

// NewSaleReceipt builds the receipt for a sale taken from preUnsold units.
func NewSaleReceipt(s Sale, preUnsold int) *SaleReceipt {
	remaining := preUnsold - s.Quantity
	return &SaleReceipt{
		Sale:      s,
		Remaining: remaining,
		Message:   fmt.Sprintf("sale recorded, remaining stock: %d", remaining),
	}
}

// SaleDetail is a sale joined with its album context for reporting.
type SaleDetail struct {
	Sale
	AlbumID       int64           `json:"albumId"`
	AlbumTitle    string          `json:"albumTitle"`
	CatalogNumber string          `json:"catalogNumber"`
	EnsembleName  string          `json:"ensembleName,omitempty"`
	MusicianName  string          `json:"musicianName,omitempty"`
	RetailPrice   decimal.Decimal `json:"retailPrice"`
}

// ReportFilter selects the sales included in a report. Bounds are inclusive.
type ReportFilter struct {
	From        *time.Time
	To          *time.Time
	MinQuantity int
}

// DefaultMinQuantity is used when a report filter leaves MinQuantity unset.
const DefaultMinQuantity = 1

// SalesReport is the filtered sale list with its totals.
type SalesReport struct {
	Sales        []SaleDetail    `json:"sales"`
	TotalSales   int             `json:"totalSales"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// Totals computes total units and revenue. Revenue uses the retail price on
// each row, which is the price at read time, not at sale time.
func Totals(sales []SaleDetail) (int, decimal.Decimal) {
	units := 0
	revenue := decimal.Zero
	for _, s := range sales {
		units += s.Quantity
		revenue = revenue.Add(s.RetailPrice.Mul(decimal.NewFromInt(int64(s.Quantity))))
	}
	return units, revenue.Round(2)
}

// ResetEvent is the audit record of one yearly rollover.
type ResetEvent struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ResetEventDescription is recorded for every rollover.
const ResetEventDescription = "Yearly sales reset"
