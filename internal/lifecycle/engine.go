package lifecycle

import (
	"context"

	"wolfpack-orders/internal/locking"
	"wolfpack-orders/internal/logger"
	"wolfpack-orders/internal/models"
)

// Store is the persistence the engine needs. Both the Postgres and the
// in-memory stores satisfy it.
type Store interface {
	CreateOrderFromSession(ctx context.Context, sess *models.TableSession, memberID *string, actor string) (*models.Order, error)
	GetOrder(ctx context.Context, orderID string) (*models.Order, bool, error)
	UpdateOrderStatus(ctx context.Context, orderID string, from, to models.OrderStatus, reason *string, actor string) (*models.Order, error)
	GetOrderHistory(ctx context.Context, orderID string) ([]models.OrderStatusHistory, error)
}

// EventSink receives exactly one event per successful lifecycle change.
// The fan-out hub implements it.
type EventSink interface {
	Publish(event models.OrderEvent)
}

// Engine owns the order status state machine. Transitions on the same order
// are serialized by a keyed mutex and, across processes, by the store's
// status compare-and-swap; transitions on different orders run concurrently.
type Engine struct {
	store  Store
	sink   EventSink
	logger *logger.Logger
	locks  *locking.KeyedMutex
}

// NewEngine creates a lifecycle engine publishing into the given sink
func NewEngine(store Store, sink EventSink, log *logger.Logger) *Engine {
	return &Engine{
		store:  store,
		sink:   sink,
		logger: log,
		locks:  locking.NewKeyedMutex(),
	}
}

// CreateFromSession converts a submitted session into a new pending order.
// The store makes the snapshot-and-clear atomic; the creation event is
// published only after the order is durably committed.
func (e *Engine) CreateFromSession(ctx context.Context, sess *models.TableSession, memberID *string, actor string) (*models.Order, error) {
	order, err := e.store.CreateOrderFromSession(ctx, sess, memberID, actor)
	if err != nil {
		return nil, err
	}

	e.logger.Info("order_created", "Order created from table session", "", map[string]interface{}{
		"order_id":     order.ID,
		"order_number": order.Number,
		"table_id":     order.TableID,
		"total_amount": order.TotalAmount,
		"item_count":   len(order.Items),
	})

	e.sink.Publish(models.OrderEvent{
		OrderID:     order.ID,
		OrderNumber: order.Number,
		TableID:     order.TableID,
		New:         order.Status,
		Stations:    order.Stations(),
		At:          order.CreatedAt,
	})
	return order, nil
}

// Transition advances an order to the given status. Transitions outside the
// state machine fail with InvalidTransitionError and leave the order
// unchanged; a lost race against a concurrent writer surfaces as
// ErrStaleOrderState.
func (e *Engine) Transition(ctx context.Context, orderID string, to models.OrderStatus, actor string) (*models.Order, error) {
	if to == models.StatusCancelled {
		return e.Cancel(ctx, orderID, "", actor)
	}
	return e.advance(ctx, orderID, to, nil, actor)
}

// Cancel moves an order to cancelled, recording the reason. It is the only
// transition that carries a payload beyond the new status.
func (e *Engine) Cancel(ctx context.Context, orderID, reason, actor string) (*models.Order, error) {
	return e.advance(ctx, orderID, models.StatusCancelled, &reason, actor)
}

func (e *Engine) advance(ctx context.Context, orderID string, to models.OrderStatus, reason *string, actor string) (*models.Order, error) {
	if !models.ValidStatus(to) {
		return nil, &models.InvalidTransitionError{To: to}
	}

	// One in-flight transition per order. Publishing inside the lock keeps
	// event order causal per order id.
	e.locks.Lock(orderID)
	defer e.locks.Unlock(orderID)

	current, found, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrOrderNotFound
	}
	if !models.CanTransition(current.Status, to) {
		return nil, &models.InvalidTransitionError{From: current.Status, To: to}
	}

	updated, err := e.store.UpdateOrderStatus(ctx, orderID, current.Status, to, reason, actor)
	if err != nil {
		return nil, err
	}

	e.logger.Info("order_transitioned", "Order status changed", "", map[string]interface{}{
		"order_id":     updated.ID,
		"order_number": updated.Number,
		"from":         string(current.Status),
		"to":           string(to),
		"actor":        actor,
	})

	event := models.OrderEvent{
		OrderID:     updated.ID,
		OrderNumber: updated.Number,
		TableID:     updated.TableID,
		Previous:    current.Status,
		New:         updated.Status,
		Stations:    updated.Stations(),
		At:          updated.UpdatedAt,
	}
	if reason != nil {
		event.Reason = *reason
	}
	e.sink.Publish(event)

	return updated, nil
}

// GetOrder returns the current state of an order
func (e *Engine) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, found, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrOrderNotFound
	}
	return order, nil
}

// GetHistory returns the status log of an order
func (e *Engine) GetHistory(ctx context.Context, orderID string) ([]models.OrderStatusHistory, error) {
	if _, err := e.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return e.store.GetOrderHistory(ctx, orderID)
}
