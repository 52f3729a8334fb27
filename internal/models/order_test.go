package models

import (
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	allowed := map[[2]OrderStatus]bool{
		{StatusPending, StatusPreparing}:   true,
		{StatusPending, StatusCancelled}:   true,
		{StatusPreparing, StatusReady}:     true,
		{StatusPreparing, StatusCancelled}: true,
		{StatusReady, StatusDelivered}:     true,
	}

	statuses := []OrderStatus{StatusPending, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled}

	// Every pair outside the allowed set must be rejected, including
	// self-transitions and anything out of a terminal status.
	for _, from := range statuses {
		for _, to := range statuses {
			got := CanTransition(from, to)
			want := allowed[[2]OrderStatus{from, to}]
			if got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransitionUnknownStatus(t *testing.T) {
	if CanTransition("unknown", StatusPreparing) {
		t.Error("expected transition from unknown status to be rejected")
	}
	if CanTransition(StatusPending, "unknown") {
		t.Error("expected transition to unknown status to be rejected")
	}
}

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status   OrderStatus
		terminal bool
	}{
		{StatusPending, false},
		{StatusPreparing, false},
		{StatusReady, false},
		{StatusDelivered, true},
		{StatusCancelled, true},
	}

	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestStatusIsOpen(t *testing.T) {
	tests := []struct {
		status OrderStatus
		open   bool
	}{
		{StatusPending, true},
		{StatusPreparing, true},
		{StatusReady, true},
		{StatusDelivered, false},
		{StatusCancelled, false},
	}

	for _, tt := range tests {
		if got := tt.status.IsOpen(); got != tt.open {
			t.Errorf("%s.IsOpen() = %v, want %v", tt.status, got, tt.open)
		}
	}
}

func TestGenerateOrderNumber(t *testing.T) {
	date := time.Date(2025, 7, 14, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		sequence int
		want     string
	}{
		{1, "ORD_20250714_001"},
		{42, "ORD_20250714_042"},
		{999, "ORD_20250714_999"},
	}

	for _, tt := range tests {
		if got := GenerateOrderNumber(date, tt.sequence); got != tt.want {
			t.Errorf("GenerateOrderNumber(%d) = %q, want %q", tt.sequence, got, tt.want)
		}
	}
}

func TestOrderStations(t *testing.T) {
	order := &Order{
		Items: []OrderItem{
			{Name: "Burger", Station: StationKitchen},
			{Name: "IPA", Station: StationBar},
			{Name: "Wings", Station: StationKitchen},
		},
	}

	stations := order.Stations()
	if len(stations) != 2 {
		t.Fatalf("expected 2 distinct stations, got %v", stations)
	}
	if stations[0] != StationKitchen || stations[1] != StationBar {
		t.Errorf("unexpected station order: %v", stations)
	}

	if !order.HasStation(StationBar) {
		t.Error("expected order to involve the bar station")
	}
}
