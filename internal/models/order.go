package models

import (
	"fmt"
	"time"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// Station identifies which fulfillment station an item is routed to
type Station string

const (
	StationKitchen Station = "kitchen"
	StationBar     Station = "bar"
)

// allowedTransitions is the full transition table of the order state machine.
// Progression is forward-only; cancellation is reachable from pending and
// preparing, never from delivered.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

// CanTransition reports whether moving from one status to another is permitted
func CanTransition(from, to OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is one of the known order statuses
func ValidStatus(s OrderStatus) bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsOpen reports whether an order in this status still needs fulfillment work.
// Open orders are what Reconcile returns to resynchronizing subscribers.
func (s OrderStatus) IsOpen() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible from s
func (s OrderStatus) Terminal() bool {
	return len(allowedTransitions[s]) == 0
}

// OrderItem is an immutable line snapshot taken from the cart at submission
type OrderItem struct {
	ID             string  `json:"id" db:"id"`
	OrderID        string  `json:"order_id,omitempty" db:"order_id"`
	MenuItemID     string  `json:"menu_item_id" db:"menu_item_id"`
	Name           string  `json:"name" db:"name"`
	Station        Station `json:"station" db:"station"`
	UnitPrice      float64 `json:"unit_price" db:"unit_price"`
	Quantity       int     `json:"quantity" db:"quantity"`
	Customizations string  `json:"customizations,omitempty" db:"customizations"`
}

// Order represents a submitted table order. Items are immutable after
// creation; only Status, CancelReason and UpdatedAt change.
type Order struct {
	ID           string      `json:"id" db:"id"`
	Number       string      `json:"order_number" db:"number"`
	TableID      string      `json:"table_id" db:"table_id"`
	MemberID     *string     `json:"member_id,omitempty" db:"member_id"`
	Items        []OrderItem `json:"items"`
	TotalAmount  float64     `json:"total_amount" db:"total_amount"`
	DeliveryFee  float64     `json:"delivery_fee" db:"delivery_fee"`
	Status       OrderStatus `json:"status" db:"status"`
	CancelReason *string     `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// Stations returns the distinct stations involved in this order, in item order
func (o *Order) Stations() []Station {
	seen := make(map[Station]bool, 2)
	var stations []Station
	for _, item := range o.Items {
		if !seen[item.Station] {
			seen[item.Station] = true
			stations = append(stations, item.Station)
		}
	}
	return stations
}

// HasStation reports whether any item of the order is routed to the station
func (o *Order) HasStation(st Station) bool {
	for _, item := range o.Items {
		if item.Station == st {
			return true
		}
	}
	return false
}

// OrderStatusHistory is an entry in the per-order status log
type OrderStatusHistory struct {
	Status    OrderStatus `json:"status" db:"status"`
	ChangedBy string      `json:"changed_by" db:"changed_by"`
	ChangedAt time.Time   `json:"timestamp" db:"changed_at"`
	Notes     *string     `json:"notes,omitempty" db:"notes"`
}

// GenerateOrderNumber generates a human-readable order number in format ORD_YYYYMMDD_NNN
func GenerateOrderNumber(date time.Time, sequence int) string {
	return fmt.Sprintf("ORD_%s_%03d", date.UTC().Format("20060102"), sequence)
}
