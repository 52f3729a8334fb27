package models

import "testing"

func TestEventFilterMatches(t *testing.T) {
	kitchenAndBar := OrderEvent{
		OrderID:  "o1",
		TableID:  "12",
		New:      StatusPending,
		Stations: []Station{StationKitchen, StationBar},
	}
	barOnly := OrderEvent{
		OrderID:  "o2",
		TableID:  "7",
		New:      StatusPending,
		Stations: []Station{StationBar},
	}

	tests := []struct {
		name   string
		filter EventFilter
		event  OrderEvent
		want   bool
	}{
		{"zero filter matches everything", EventFilter{}, kitchenAndBar, true},
		{"kitchen filter matches mixed order", EventFilter{Station: StationKitchen}, kitchenAndBar, true},
		{"kitchen filter rejects bar-only order", EventFilter{Station: StationKitchen}, barOnly, false},
		{"bar filter matches mixed order", EventFilter{Station: StationBar}, kitchenAndBar, true},
		{"table filter matches own table", EventFilter{TableID: "12"}, kitchenAndBar, true},
		{"table filter rejects other table", EventFilter{TableID: "12"}, barOnly, false},
		{"combined filter needs both", EventFilter{Station: StationBar, TableID: "12"}, barOnly, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(&tt.event); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEventFilterMatchesOrder(t *testing.T) {
	order := Order{
		ID:      "o1",
		TableID: "12",
		Status:  StatusPreparing,
		Items: []OrderItem{
			{Station: StationKitchen},
		},
	}

	if !(EventFilter{Station: StationKitchen}).MatchesOrder(&order) {
		t.Error("kitchen filter should match kitchen order")
	}
	if (EventFilter{Station: StationBar}).MatchesOrder(&order) {
		t.Error("bar filter should not match kitchen-only order")
	}
	if !(EventFilter{TableID: "12"}).MatchesOrder(&order) {
		t.Error("table filter should match own table")
	}
}

func TestFilterForRole(t *testing.T) {
	tests := []struct {
		role   SubscriberRole
		table  string
		filter EventFilter
	}{
		{RoleKitchen, "12", EventFilter{Station: StationKitchen}},
		{RoleBar, "", EventFilter{Station: StationBar}},
		{RoleCustomer, "12", EventFilter{TableID: "12"}},
		{RoleAdmin, "12", EventFilter{}},
	}

	for _, tt := range tests {
		if got := FilterForRole(tt.role, tt.table); got != tt.filter {
			t.Errorf("FilterForRole(%s, %q) = %+v, want %+v", tt.role, tt.table, got, tt.filter)
		}
	}
}

func TestEventCreated(t *testing.T) {
	created := OrderEvent{New: StatusPending}
	if !created.Created() {
		t.Error("event with no previous status and pending new status should read as creation")
	}

	transition := OrderEvent{Previous: StatusPending, New: StatusPreparing}
	if transition.Created() {
		t.Error("transition event should not read as creation")
	}
}
