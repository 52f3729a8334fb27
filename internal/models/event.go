package models

import "time"

// SubscriberRole identifies which filtered view of order events a subscriber sees
type SubscriberRole string

const (
	RoleKitchen  SubscriberRole = "kitchen"
	RoleBar      SubscriberRole = "bar"
	RoleAdmin    SubscriberRole = "admin"
	RoleCustomer SubscriberRole = "customer"
)

// ValidRole reports whether r is a known subscriber role
func ValidRole(r SubscriberRole) bool {
	switch r {
	case RoleKitchen, RoleBar, RoleAdmin, RoleCustomer:
		return true
	}
	return false
}

// OrderEvent describes one order lifecycle change. A creation event carries
// an empty Previous status; every later transition carries both sides.
type OrderEvent struct {
	OrderID     string      `json:"order_id"`
	OrderNumber string      `json:"order_number"`
	TableID     string      `json:"table_id"`
	Previous    OrderStatus `json:"previous_status,omitempty"`
	New         OrderStatus `json:"new_status"`
	Stations    []Station   `json:"stations"`
	Reason      string      `json:"reason,omitempty"`
	At          time.Time   `json:"at"`
}

// Created reports whether this event announces a new order
func (e *OrderEvent) Created() bool {
	return e.Previous == "" && e.New == StatusPending
}

// EventFilter narrows which order events a subscriber receives. Station
// filters by routing (kitchen/bar); TableID filters to one table's orders.
// A zero filter matches everything, which is what admin subscribers use.
type EventFilter struct {
	Station Station `json:"station,omitempty"`
	TableID string  `json:"table_id,omitempty"`
}

// Matches evaluates the filter predicate against a single event
func (f EventFilter) Matches(e *OrderEvent) bool {
	if f.TableID != "" && e.TableID != f.TableID {
		return false
	}
	if f.Station != "" {
		found := false
		for _, st := range e.Stations {
			if st == f.Station {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// MatchesOrder evaluates the same predicate against a stored order, so the
// reconcile path and the live path cannot drift apart.
func (f EventFilter) MatchesOrder(o *Order) bool {
	if f.TableID != "" && o.TableID != f.TableID {
		return false
	}
	if f.Station != "" && !o.HasStation(f.Station) {
		return false
	}
	return true
}

// FilterForRole builds the canonical filter for a subscriber role. The table
// id only applies to customer subscriptions.
func FilterForRole(role SubscriberRole, tableID string) EventFilter {
	switch role {
	case RoleKitchen:
		return EventFilter{Station: StationKitchen}
	case RoleBar:
		return EventFilter{Station: StationBar}
	case RoleCustomer:
		return EventFilter{TableID: tableID}
	default:
		return EventFilter{}
	}
}
