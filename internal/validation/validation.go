package validation

import "fmt"

const (
	maxTableIDLength        = 32
	maxQuantity             = 20
	maxCustomizationsLength = 500
	maxReasonLength         = 255
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ValidateTableID(tableID string) error {
	if tableID == "" {
		return ValidationError{
			Field:   "table_id",
			Message: "table id is required",
		}
	}
	if len(tableID) > maxTableIDLength {
		return ValidationError{
			Field:   "table_id",
			Message: fmt.Sprintf("table id must be at most %d characters", maxTableIDLength),
		}
	}
	return nil
}

func ValidateQuantity(quantity int) error {
	if quantity < 1 {
		return ValidationError{
			Field:   "quantity",
			Message: "quantity must be at least 1",
		}
	}
	if quantity > maxQuantity {
		return ValidationError{
			Field:   "quantity",
			Message: fmt.Sprintf("quantity must be at most %d", maxQuantity),
		}
	}
	return nil
}

func ValidateCustomizations(customizations string) error {
	if len(customizations) > maxCustomizationsLength {
		return ValidationError{
			Field:   "customizations",
			Message: fmt.Sprintf("customizations must be at most %d characters", maxCustomizationsLength),
		}
	}
	return nil
}

func ValidateCancelReason(reason string) error {
	if len(reason) > maxReasonLength {
		return ValidationError{
			Field:   "reason",
			Message: fmt.Sprintf("reason must be at most %d characters", maxReasonLength),
		}
	}
	return nil
}

func ValidateAddItemRequest(tableID, menuItemID string, quantity int, customizations string) error {
	if err := ValidateTableID(tableID); err != nil {
		return err
	}
	if menuItemID == "" {
		return ValidationError{
			Field:   "menu_item_id",
			Message: "menu item id is required",
		}
	}
	if err := ValidateQuantity(quantity); err != nil {
		return err
	}
	return ValidateCustomizations(customizations)
}
