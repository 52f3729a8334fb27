package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"wolfpack-orders/internal/models"
)

// PresenceReader reads live location state for a member. A false second
// return means no record exists; an error means the backend failed.
type PresenceReader interface {
	GetLocationState(ctx context.Context, memberID string) (*models.LocationState, bool, error)
}

// MembershipReader reads the membership record for a member
type MembershipReader interface {
	GetMembershipState(ctx context.Context, memberID string) (*models.MembershipState, bool, error)
}

const (
	presenceKeyPrefix   = "wolfpack:presence:"
	membershipKeyPrefix = "wolfpack:membership:"
)

// RedisStore reads (and, for the external verification mechanism, writes)
// presence and membership state in Redis. Records are JSON values keyed by
// member id; the verification service refreshes them on each check-in.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection with a short ping
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

// GetLocationState returns the member's live location record, if any
func (s *RedisStore) GetLocationState(ctx context.Context, memberID string) (*models.LocationState, bool, error) {
	raw, err := s.client.Get(ctx, presenceKeyPrefix+memberID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &models.DependencyError{Dependency: "presence", Err: err}
	}

	var state models.LocationState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, false, &models.DependencyError{Dependency: "presence", Err: err}
	}
	return &state, true, nil
}

// GetMembershipState returns the member's membership record, if any
func (s *RedisStore) GetMembershipState(ctx context.Context, memberID string) (*models.MembershipState, bool, error) {
	raw, err := s.client.Get(ctx, membershipKeyPrefix+memberID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &models.DependencyError{Dependency: "membership", Err: err}
	}

	var state models.MembershipState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, false, &models.DependencyError{Dependency: "membership", Err: err}
	}
	return &state, true, nil
}

// SetLocationState stores a location record with a TTL. Exposed for the
// verification service and for seeding dev environments.
func (s *RedisStore) SetLocationState(ctx context.Context, state *models.LocationState, ttl time.Duration) error {
	body, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, presenceKeyPrefix+state.MemberID, body, ttl).Err()
}

// SetMembershipState stores a membership record without expiry
func (s *RedisStore) SetMembershipState(ctx context.Context, state *models.MembershipState) error {
	body, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, membershipKeyPrefix+state.MemberID, body, 0).Err()
}

// Close releases the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// MemoryStore is an in-process presence/membership backend for tests and
// for running the API without Redis.
type MemoryStore struct {
	mu          sync.RWMutex
	locations   map[string]models.LocationState
	memberships map[string]models.MembershipState
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locations:   make(map[string]models.LocationState),
		memberships: make(map[string]models.MembershipState),
	}
}

// GetLocationState returns the member's location record, if any
func (s *MemoryStore) GetLocationState(ctx context.Context, memberID string) (*models.LocationState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.locations[memberID]
	if !ok {
		return nil, false, nil
	}
	return &state, true, nil
}

// GetMembershipState returns the member's membership record, if any
func (s *MemoryStore) GetMembershipState(ctx context.Context, memberID string) (*models.MembershipState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.memberships[memberID]
	if !ok {
		return nil, false, nil
	}
	return &state, true, nil
}

// SetLocationState stores a location record
func (s *MemoryStore) SetLocationState(state models.LocationState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[state.MemberID] = state
}

// SetMembershipState stores a membership record
func (s *MemoryStore) SetMembershipState(state models.MembershipState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships[state.MemberID] = state
}
