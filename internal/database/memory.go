package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"wolfpack-orders/internal/models"
)

// MemoryStore is an in-process implementation of the same persistence
// contract the Postgres Store provides. It backs tests and broker-less dev
// runs. A single mutex gives the read-committed-or-better isolation the
// contract asks for; per-entity serialization still comes from the callers'
// keyed mutexes plus the status check in UpdateOrderStatus.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]models.TableSession // keyed by table id
	orders   map[string]models.Order        // keyed by order id
	history  map[string][]models.OrderStatusHistory
	sequence int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]models.TableSession),
		orders:   make(map[string]models.Order),
		history:  make(map[string][]models.OrderStatusHistory),
	}
}

// Ping always succeeds for the in-memory store
func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

// GetSession returns a copy of the table's session, if one exists
func (m *MemoryStore) GetSession(ctx context.Context, tableID string) (*models.TableSession, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[tableID]
	if !ok {
		return nil, false, nil
	}
	out := cloneSession(sess)
	return &out, true, nil
}

// SaveSession stores a copy of the session
func (m *MemoryStore) SaveSession(ctx context.Context, sess *models.TableSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := cloneSession(*sess)
	stored.UpdatedAt = time.Now().UTC()
	m.sessions[sess.TableID] = stored
	return nil
}

// DeleteSession removes the table's session
func (m *MemoryStore) DeleteSession(ctx context.Context, tableID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, tableID)
	return nil
}

// CreateOrderFromSession snapshots the session into a new pending order and
// clears the session under one lock, so no caller can observe one without
// the other.
func (m *MemoryStore) CreateOrderFromSession(ctx context.Context, sess *models.TableSession, memberID *string, actor string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	m.sequence++

	order := models.Order{
		ID:          uuid.NewString(),
		Number:      models.GenerateOrderNumber(now, m.sequence),
		TableID:     sess.TableID,
		MemberID:    memberID,
		TotalAmount: sess.Total(),
		DeliveryFee: sess.DeliveryFee,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, ci := range sess.Items {
		order.Items = append(order.Items, models.OrderItem{
			ID:             uuid.NewString(),
			OrderID:        order.ID,
			MenuItemID:     ci.MenuItemID,
			Name:           ci.Name,
			Station:        ci.Station,
			UnitPrice:      ci.UnitPrice,
			Quantity:       ci.Quantity,
			Customizations: ci.Customizations,
		})
	}

	m.orders[order.ID] = cloneOrder(order)
	notes := "order created"
	m.history[order.ID] = append(m.history[order.ID], models.OrderStatusHistory{
		Status:    order.Status,
		ChangedBy: actor,
		ChangedAt: now,
		Notes:     &notes,
	})
	delete(m.sessions, sess.TableID)

	out := cloneOrder(order)
	return &out, nil
}

// GetOrder returns a copy of the order, if it exists
func (m *MemoryStore) GetOrder(ctx context.Context, orderID string) (*models.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderID]
	if !ok {
		return nil, false, nil
	}
	out := cloneOrder(order)
	return &out, true, nil
}

// UpdateOrderStatus applies a transition only when the order is still in the
// expected previous status, mirroring the Postgres compare-and-swap.
func (m *MemoryStore) UpdateOrderStatus(ctx context.Context, orderID string, from, to models.OrderStatus, reason *string, actor string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderID]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	if order.Status != from {
		return nil, models.ErrStaleOrderState
	}

	now := time.Now().UTC()
	order.Status = to
	order.UpdatedAt = now
	if reason != nil {
		r := *reason
		order.CancelReason = &r
	}
	m.orders[orderID] = cloneOrder(order)

	var notes *string
	if reason != nil {
		n := fmt.Sprintf("cancelled: %s", *reason)
		notes = &n
	}
	m.history[orderID] = append(m.history[orderID], models.OrderStatusHistory{
		Status:    to,
		ChangedBy: actor,
		ChangedAt: now,
		Notes:     notes,
	})

	out := cloneOrder(order)
	return &out, nil
}

// ListOpenOrders returns all pending/preparing/ready orders, oldest first
func (m *MemoryStore) ListOpenOrders(ctx context.Context) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Order
	for _, order := range m.orders {
		if order.Status.IsOpen() {
			out = append(out, cloneOrder(order))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

// GetOrderHistory returns the order's status log, oldest first
func (m *MemoryStore) GetOrderHistory(ctx context.Context, orderID string) ([]models.OrderStatusHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.history[orderID]
	out := make([]models.OrderStatusHistory, len(entries))
	copy(out, entries)
	return out, nil
}

func cloneSession(sess models.TableSession) models.TableSession {
	items := make([]models.CartItem, len(sess.Items))
	copy(items, sess.Items)
	sess.Items = items
	return sess
}

func cloneOrder(order models.Order) models.Order {
	items := make([]models.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	if order.MemberID != nil {
		id := *order.MemberID
		order.MemberID = &id
	}
	if order.CancelReason != nil {
		r := *order.CancelReason
		order.CancelReason = &r
	}
	return order
}
