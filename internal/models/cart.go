package models

import "time"

// CartItem is a mutable line in a table session. UnitPrice is snapshotted
// from the catalog at add time so later menu edits never reprice an open cart.
type CartItem struct {
	ID             string  `json:"id" db:"id"`
	MenuItemID     string  `json:"menu_item_id" db:"menu_item_id"`
	Name           string  `json:"name" db:"name"`
	Station        Station `json:"station" db:"station"`
	UnitPrice      float64 `json:"unit_price" db:"unit_price"`
	Quantity       int     `json:"quantity" db:"quantity"`
	Customizations string  `json:"customizations,omitempty" db:"customizations"`
}

// LineTotal returns the price contribution of this cart line
func (ci *CartItem) LineTotal() float64 {
	return ci.UnitPrice * float64(ci.Quantity)
}

// TableSession is the order-in-progress for one table. At most one active
// session exists per table; it is created on the first item add and cleared
// on submission or abandonment.
type TableSession struct {
	ID          string     `json:"id" db:"id"`
	TableID     string     `json:"table_id" db:"table_id"`
	Items       []CartItem `json:"items"`
	DeliveryFee float64    `json:"delivery_fee" db:"delivery_fee"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Subtotal returns the sum of all line totals
func (s *TableSession) Subtotal() float64 {
	var sum float64
	for i := range s.Items {
		sum += s.Items[i].LineTotal()
	}
	return sum
}

// Total returns the session total. It is always recomputed from current
// contents, never stored, so it cannot go stale.
func (s *TableSession) Total() float64 {
	return s.Subtotal() + s.DeliveryFee
}

// Empty reports whether the session holds no items
func (s *TableSession) Empty() bool {
	return len(s.Items) == 0
}

// FindItem returns the index of the cart item with the given id, or -1
func (s *TableSession) FindItem(cartItemID string) int {
	for i := range s.Items {
		if s.Items[i].ID == cartItemID {
			return i
		}
	}
	return -1
}

// FindLine returns the index of the line matching the menu item and
// customizations, or -1. Same item with same customizations merges into
// one line; different customizations stay separate.
func (s *TableSession) FindLine(menuItemID, customizations string) int {
	for i := range s.Items {
		if s.Items[i].MenuItemID == menuItemID && s.Items[i].Customizations == customizations {
			return i
		}
	}
	return -1
}
