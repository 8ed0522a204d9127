package builder

import (
	"testing"

	"github.com/marshallshelly/pebble-shop/pkg/registry"
)

type TestStockLine struct {
	ID        int64  `po:"id,primaryKey,autoIncrement"`
	SKU       string `po:"sku,text,unique,notNull"`
	OnHand    int64  `po:"on_hand,integer"`
	Backorder bool   `po:"backorder,boolean"`
}

func TestCol(t *testing.T) {
	if _, err := registry.GetOrRegister(TestStockLine{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := map[string]string{
		"ID":        "id",
		"SKU":       "sku",
		"OnHand":    "on_hand",
		"Backorder": "backorder",
		"NotAField": "NotAField",
		"on_hand":   "on_hand",
	}

	for field, want := range tests {
		if got := Col[TestStockLine](field); got != want {
			t.Errorf("Col[TestStockLine](%q) = %q, want %q", field, got, want)
		}
	}
}

func TestCol_NotRegistered(t *testing.T) {
	type loose struct {
		Qty int `po:"qty"`
	}

	if got := Col[loose]("Qty"); got != "Qty" {
		t.Errorf("unregistered model should echo the field name, got %q", got)
	}
}
