package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/danicaoo/musicShop/internal/model"
)

type saleRequest struct {
	InventoryID int64 `json:"inventoryId" validate:"required,gt=0"`
	Quantity    int   `json:"quantity" validate:"required,min=1"`
}

type priceRequest struct {
	RetailPrice    *decimal.Decimal `json:"retailPrice" validate:"omitempty,gte=0"`
	WholesalePrice decimal.Decimal  `json:"wholesalePrice" validate:"gte=0"`
}

type musicianRequest struct {
	Name  string   `json:"name" validate:"required,max=200"`
	Roles []string `json:"roles" validate:"dive,musicianrole"`
}

func TestStructValid(t *testing.T) {
	if err := Struct(&saleRequest{InventoryID: 1, Quantity: 3}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStructReturnsValidationError(t *testing.T) {
	err := Struct(&saleRequest{InventoryID: 1, Quantity: 0})
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *model.ValidationError, got %T", err)
	}
	if !strings.Contains(ve.Message, "quantity") {
		t.Errorf("expected JSON field name in message, got %q", ve.Message)
	}
}

func TestStructReportsAllFields(t *testing.T) {
	err := Struct(&saleRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "inventoryId is required") || !strings.Contains(msg, "quantity is required") {
		t.Errorf("expected both fields reported, got %q", msg)
	}
}

func TestDecimalComparison(t *testing.T) {
	neg := decimal.RequireFromString("-0.01")
	tests := []struct {
		name    string
		req     priceRequest
		wantErr bool
	}{
		{"zero", priceRequest{}, false},
		{"positive", priceRequest{WholesalePrice: decimal.RequireFromString("4.20")}, false},
		{"negative value", priceRequest{WholesalePrice: neg}, true},
		{"negative pointer", priceRequest{RetailPrice: &neg}, true},
	}

	for _, tt := range tests {
		err := Struct(&tt.req)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestMusicianRoleValidation(t *testing.T) {
	ok := musicianRequest{Name: "Ella", Roles: []string{model.MusicianVocalist}}
	if err := Struct(&ok); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	bad := musicianRequest{Name: "Ella", Roles: []string{"SINGER"}}
	err := Struct(&bad)
	if err == nil || !strings.Contains(err.Error(), "valid musician role") {
		t.Errorf("expected role error, got %v", err)
	}
}
