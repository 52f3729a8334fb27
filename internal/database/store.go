package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"wolfpack-orders/internal/models"
)

// Store is the PostgreSQL-backed persistence for table sessions and orders.
// Per-order transition serialization comes from a status compare-and-swap,
// so concurrent writers from other processes lose cleanly instead of
// overwriting each other.
type Store struct {
	db *DB
}

// NewStore creates a store over an open connection pool
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

func depErr(err error) error {
	return &models.DependencyError{Dependency: "persistence", Err: err}
}

// Ping reports whether the backing database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// GetSession loads the active session for a table, including its items
func (s *Store) GetSession(ctx context.Context, tableID string) (*models.TableSession, bool, error) {
	var sess models.TableSession
	err := s.db.Pool.QueryRow(ctx, getSessionSQL, tableID).Scan(
		&sess.ID, &sess.TableID, &sess.DeliveryFee, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, depErr(err)
	}

	rows, err := s.db.Pool.Query(ctx, getSessionItemsSQL, sess.ID)
	if err != nil {
		return nil, false, depErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ID, &item.MenuItemID, &item.Name, &item.Station,
			&item.UnitPrice, &item.Quantity, &item.Customizations); err != nil {
			return nil, false, depErr(err)
		}
		sess.Items = append(sess.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, false, depErr(err)
	}
	return &sess, true, nil
}

// SaveSession upserts a session and replaces its items in one transaction
func (s *Store) SaveSession(ctx context.Context, sess *models.TableSession) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return depErr(err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, upsertSessionSQL, sess.ID, sess.TableID, sess.DeliveryFee, sess.CreatedAt); err != nil {
		return depErr(fmt.Errorf("failed to upsert session: %w", err))
	}
	if _, err := tx.Exec(ctx, deleteSessionItemsSQL, sess.ID); err != nil {
		return depErr(fmt.Errorf("failed to clear session items: %w", err))
	}
	for i, item := range sess.Items {
		if _, err := tx.Exec(ctx, insertSessionItemSQL,
			item.ID, sess.ID, item.MenuItemID, item.Name, item.Station,
			item.UnitPrice, item.Quantity, item.Customizations, i); err != nil {
			return depErr(fmt.Errorf("failed to insert session item %s: %w", item.Name, err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return depErr(err)
	}
	return nil
}

// DeleteSession removes a table's session and, by cascade, its items
func (s *Store) DeleteSession(ctx context.Context, tableID string) error {
	if _, err := s.db.Pool.Exec(ctx, deleteSessionSQL, tableID); err != nil {
		return depErr(err)
	}
	return nil
}

// CreateOrderFromSession atomically snapshots the session into a new pending
// order and clears the session. Either both land or neither does; a caller
// cancelling mid-flight simply never commits.
func (s *Store) CreateOrderFromSession(ctx context.Context, sess *models.TableSession, memberID *string, actor string) (*models.Order, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, depErr(err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	var sequence int
	prefix := fmt.Sprintf("ORD_%s_%%", now.Format("20060102"))
	if err := tx.QueryRow(ctx, nextOrderSequenceSQL, prefix).Scan(&sequence); err != nil {
		return nil, depErr(fmt.Errorf("failed to allocate order number: %w", err))
	}

	order := &models.Order{
		ID:          uuid.NewString(),
		Number:      models.GenerateOrderNumber(now, sequence),
		TableID:     sess.TableID,
		MemberID:    memberID,
		TotalAmount: sess.Total(),
		DeliveryFee: sess.DeliveryFee,
		Status:      models.StatusPending,
	}

	if err := tx.QueryRow(ctx, insertOrderSQL,
		order.ID, order.Number, order.TableID, order.MemberID,
		order.TotalAmount, order.DeliveryFee, order.Status).Scan(&order.CreatedAt, &order.UpdatedAt); err != nil {
		return nil, depErr(fmt.Errorf("failed to insert order: %w", err))
	}

	for i, ci := range sess.Items {
		item := models.OrderItem{
			ID:             uuid.NewString(),
			OrderID:        order.ID,
			MenuItemID:     ci.MenuItemID,
			Name:           ci.Name,
			Station:        ci.Station,
			UnitPrice:      ci.UnitPrice,
			Quantity:       ci.Quantity,
			Customizations: ci.Customizations,
		}
		if _, err := tx.Exec(ctx, insertOrderItemSQL,
			item.ID, item.OrderID, item.MenuItemID, item.Name, item.Station,
			item.UnitPrice, item.Quantity, item.Customizations, i); err != nil {
			return nil, depErr(fmt.Errorf("failed to insert order item %s: %w", item.Name, err))
		}
		order.Items = append(order.Items, item)
	}

	if _, err := tx.Exec(ctx, insertOrderStatusLogSQL,
		order.ID, order.Status, actor, "order created"); err != nil {
		return nil, depErr(fmt.Errorf("failed to insert status log: %w", err))
	}

	if _, err := tx.Exec(ctx, deleteSessionSQL, sess.TableID); err != nil {
		return nil, depErr(fmt.Errorf("failed to clear session: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, depErr(err)
	}
	return order, nil
}

// GetOrder loads an order with its items
func (s *Store) GetOrder(ctx context.Context, orderID string) (*models.Order, bool, error) {
	order, err := s.scanOrder(s.db.Pool.QueryRow(ctx, getOrderSQL, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, depErr(err)
	}
	if err := s.loadItems(ctx, order); err != nil {
		return nil, false, err
	}
	return order, true, nil
}

// UpdateOrderStatus applies a status transition with a compare-and-swap on
// the previous status. A zero-row update means the order moved underneath
// the caller: ErrStaleOrderState if it still exists, ErrOrderNotFound if not.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID string, from, to models.OrderStatus, reason *string, actor string) (*models.Order, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, depErr(err)
	}
	defer tx.Rollback(ctx)

	var updatedAt time.Time
	err = tx.QueryRow(ctx, updateOrderStatusSQL, orderID, from, to, reason).Scan(&updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		var current models.OrderStatus
		probe := tx.QueryRow(ctx, "SELECT status FROM orders WHERE id = $1", orderID)
		if scanErr := probe.Scan(&current); scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				return nil, models.ErrOrderNotFound
			}
			return nil, depErr(scanErr)
		}
		return nil, models.ErrStaleOrderState
	}
	if err != nil {
		return nil, depErr(err)
	}

	var notes *string
	if reason != nil {
		n := fmt.Sprintf("cancelled: %s", *reason)
		notes = &n
	}
	if _, err := tx.Exec(ctx, insertOrderStatusLogSQL, orderID, to, actor, notes); err != nil {
		return nil, depErr(fmt.Errorf("failed to insert status log: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, depErr(err)
	}

	order, found, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrOrderNotFound
	}
	return order, nil
}

// ListOpenOrders returns all orders still needing fulfillment, oldest first.
// This backs the hub's reconcile path.
func (s *Store) ListOpenOrders(ctx context.Context) ([]models.Order, error) {
	rows, err := s.db.Pool.Query(ctx, listOpenOrdersSQL)
	if err != nil {
		return nil, depErr(err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := s.scanOrder(rows)
		if err != nil {
			return nil, depErr(err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, depErr(err)
	}

	for i := range orders {
		if err := s.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// GetOrderHistory returns the status log of an order, oldest first
func (s *Store) GetOrderHistory(ctx context.Context, orderID string) ([]models.OrderStatusHistory, error) {
	rows, err := s.db.Pool.Query(ctx, getOrderHistorySQL, orderID)
	if err != nil {
		return nil, depErr(err)
	}
	defer rows.Close()

	var history []models.OrderStatusHistory
	for rows.Next() {
		var entry models.OrderStatusHistory
		if err := rows.Scan(&entry.Status, &entry.ChangedBy, &entry.ChangedAt, &entry.Notes); err != nil {
			return nil, depErr(err)
		}
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, depErr(err)
	}
	return history, nil
}

func (s *Store) scanOrder(row pgx.Row) (*models.Order, error) {
	var order models.Order
	err := row.Scan(&order.ID, &order.Number, &order.TableID, &order.MemberID,
		&order.TotalAmount, &order.DeliveryFee, &order.Status, &order.CancelReason,
		&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Store) loadItems(ctx context.Context, order *models.Order) error {
	rows, err := s.db.Pool.Query(ctx, getOrderItemsSQL, order.ID)
	if err != nil {
		return depErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Name,
			&item.Station, &item.UnitPrice, &item.Quantity, &item.Customizations); err != nil {
			return depErr(err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return depErr(err)
	}
	return nil
}
