package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Database.Host == "" {
		t.Fatalf("expected database host to default")
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("expected default db port 5432, got %d", cfg.Database.Port)
	}
	if cfg.Venue.LocationFreshness != 10*time.Minute {
		t.Errorf("expected default freshness window 10m, got %v", cfg.Venue.LocationFreshness)
	}
	if cfg.Venue.EventBuffer < 1 {
		t.Errorf("expected positive event buffer, got %d", cfg.Venue.EventBuffer)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_PORT", "6543")
	t.Setenv("LOCATION_FRESHNESS", "5m")
	t.Setenv("DELIVERY_FEE", "1.50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Database.Port != 6543 {
		t.Errorf("expected db port 6543, got %d", cfg.Database.Port)
	}
	if cfg.Venue.LocationFreshness != 5*time.Minute {
		t.Errorf("expected freshness 5m, got %v", cfg.Venue.LocationFreshness)
	}
	if cfg.Venue.DeliveryFee != 1.50 {
		t.Errorf("expected delivery fee 1.50, got %v", cfg.Venue.DeliveryFee)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "DB_PORT", "not-a-number"},
		{"bad freshness", "LOCATION_FRESHNESS", "soon"},
		{"negative fee", "DELIVERY_FEE", "-2"},
		{"zero buffer", "EVENT_BUFFER", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestURLs(t *testing.T) {
	t.Setenv("DB_USER", "wolf")
	t.Setenv("DB_PASSWORD", "pack")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "orders")
	t.Setenv("RABBITMQ_HOST", "mq")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got, want := cfg.DatabaseURL(), "postgres://wolf:pack@db:5432/orders?sslmode=disable"; got != want {
		t.Errorf("DatabaseURL = %q, want %q", got, want)
	}
	if got, want := cfg.RabbitMQURL(), "amqp://guest:guest@mq:5672/"; got != want {
		t.Errorf("RabbitMQURL = %q, want %q", got, want)
	}
}
