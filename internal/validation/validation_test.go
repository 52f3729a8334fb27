package validation

import (
	"strings"
	"testing"
)

func TestValidateAddItemRequest(t *testing.T) {
	tests := []struct {
		name           string
		tableID        string
		menuItemID     string
		quantity       int
		customizations string
		wantErr        bool
	}{
		{
			name:       "valid request",
			tableID:    "12",
			menuItemID: "burger",
			quantity:   2,
			wantErr:    false,
		},
		{
			name:       "missing table id",
			tableID:    "",
			menuItemID: "burger",
			quantity:   1,
			wantErr:    true,
		},
		{
			name:       "missing menu item id",
			tableID:    "12",
			menuItemID: "",
			quantity:   1,
			wantErr:    true,
		},
		{
			name:       "zero quantity",
			tableID:    "12",
			menuItemID: "burger",
			quantity:   0,
			wantErr:    true,
		},
		{
			name:       "excessive quantity",
			tableID:    "12",
			menuItemID: "burger",
			quantity:   21,
			wantErr:    true,
		},
		{
			name:           "oversized customizations",
			tableID:        "12",
			menuItemID:     "burger",
			quantity:       1,
			customizations: strings.Repeat("x", 501),
			wantErr:        true,
		},
		{
			name:       "oversized table id",
			tableID:    strings.Repeat("t", 33),
			menuItemID: "burger",
			quantity:   1,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddItemRequest(tt.tableID, tt.menuItemID, tt.quantity, tt.customizations)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAddItemRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCancelReason(t *testing.T) {
	if err := ValidateCancelReason("kitchen out of stock"); err != nil {
		t.Errorf("short reason rejected: %v", err)
	}
	if err := ValidateCancelReason(strings.Repeat("x", 256)); err == nil {
		t.Error("oversized reason accepted")
	}
}
