package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Inventory is the stock and sales-counter ledger of one album.
//
// CurrentYearSales and LastYearSales are a denormalized cache of the sale
// rows: CurrentYearSales always equals the quantity sold since the last
// rollover.
type Inventory struct {
	ID               int64           `json:"id"`
	AlbumID          int64           `json:"albumId"`
	WholesalePrice   decimal.Decimal `json:"wholesalePrice"`
	RetailPrice      decimal.Decimal `json:"retailPrice"`
	LastYearSales    int             `json:"lastYearSales"`
	CurrentYearSales int             `json:"currentYearSales"`
	Unsold           int             `json:"unsold"`
	UpdatedAt        time.Time       `json:"updatedAt"`

	// Joined fields (not always populated).
	AlbumTitle    string `json:"albumTitle,omitempty"`
	CatalogNumber string `json:"catalogNumber,omitempty"`
	EnsembleName  string `json:"ensembleName,omitempty"`
	MusicianName  string `json:"musicianName,omitempty"`
}

// PricePlaces is the number of decimal places kept for prices.
const PricePlaces = 2

// checkPrice rejects negative prices and prices finer than a cent.
func checkPrice(name string, d decimal.Decimal) error {
	if d.IsNegative() {
		return Invalid("%s must not be negative", name)
	}
	if !d.Equal(d.Round(PricePlaces)) {
		return Invalid("%s must have at most %d decimal places", name, PricePlaces)
	}
	return nil
}

// NewInventory creates the initial ledger of a new album.
func NewInventory(wholesale, retail decimal.Decimal, initialQuantity int) (*Inventory, error) {
	if err := checkPrice("wholesale price", wholesale); err != nil {
		return nil, err
	}
	if err := checkPrice("retail price", retail); err != nil {
		return nil, err
	}
	if initialQuantity < 0 {
		return nil, Invalid("initial quantity must not be negative")
	}
	return &Inventory{
		WholesalePrice: wholesale,
		RetailPrice:    retail,
		Unsold:         initialQuantity,
	}, nil
}

// CheckSale verifies that quantity units can be sold from this ledger.
func (inv *Inventory) CheckSale(quantity int) error {
	if quantity < 1 {
		return Invalid("quantity must be at least 1")
	}
	if quantity > inv.Unsold {
		return &InsufficientStockError{Requested: quantity, Available: inv.Unsold}
	}
	return nil
}

// ApplySale moves quantity units from unsold stock to current-year sales.
func (inv *Inventory) ApplySale(quantity int) error {
	if err := inv.CheckSale(quantity); err != nil {
		return err
	}
	inv.Unsold -= quantity
	inv.CurrentYearSales += quantity
	return nil
}

// Rollover archives current-year sales into last-year sales. Ledgers with
// no current-year sales are left untouched and false is returned.
// store.RolloverSales applies the same rule to every ledger in one UPDATE.
func (inv *Inventory) Rollover() bool {
	if inv.CurrentYearSales == 0 {
		return false
	}
	inv.LastYearSales = inv.CurrentYearSales
	inv.CurrentYearSales = 0
	return true
}

// InventoryAdjustment is an administrative overwrite. Nil fields are kept.
type InventoryAdjustment struct {
	WholesalePrice *decimal.Decimal
	RetailPrice    *decimal.Decimal
	Unsold         *int
}

// Empty reports whether the adjustment changes nothing.
func (a InventoryAdjustment) Empty() bool {
	return a.WholesalePrice == nil && a.RetailPrice == nil && a.Unsold == nil
}

// Adjust overwrites the listed fields after checking they are not negative.
func (inv *Inventory) Adjust(a InventoryAdjustment) error {
	if a.WholesalePrice != nil {
		if err := checkPrice("wholesale price", *a.WholesalePrice); err != nil {
			return err
		}
	}
	if a.RetailPrice != nil {
		if err := checkPrice("retail price", *a.RetailPrice); err != nil {
			return err
		}
	}
	if a.Unsold != nil && *a.Unsold < 0 {
		return Invalid("unsold must not be negative")
	}
	if a.WholesalePrice != nil {
		inv.WholesalePrice = *a.WholesalePrice
	}
	if a.RetailPrice != nil {
		inv.RetailPrice = *a.RetailPrice
	}
	if a.Unsold != nil {
		inv.Unsold = *a.Unsold
	}
	return nil
}
