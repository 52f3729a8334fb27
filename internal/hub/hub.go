package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"wolfpack-orders/internal/logger"
	"wolfpack-orders/internal/models"
	"wolfpack-orders/internal/notify"
)

// ReconcileStore supplies the open-order snapshot reconnecting subscribers
// pull to resynchronize after missed live events.
type ReconcileStore interface {
	ListOpenOrders(ctx context.Context) ([]models.Order, error)
}

// Subscription is a live handle onto the event stream. The caller reads
// Events() until done and then calls Close (or Hub.Unsubscribe), which is
// idempotent.
type Subscription struct {
	ID     string
	Role   models.SubscriberRole
	Filter models.EventFilter

	hub *Hub
	ch  chan models.OrderEvent
}

// Events returns the subscriber's live event channel. The channel is closed
// on unsubscribe.
func (s *Subscription) Events() <-chan models.OrderEvent {
	return s.ch
}

// Close stops delivery to this subscription; safe to call more than once
func (s *Subscription) Close() {
	s.hub.Unsubscribe(s)
}

// Hub fans every order lifecycle event out to all currently-subscribed
// role-filtered listeners. Delivery is per-subscriber independent and
// non-blocking: a full subscriber buffer drops the event rather than
// blocking the emitter or its peers. Dropped events are recovered through
// Reconcile, which is the correctness backstop of the protocol.
type Hub struct {
	mu         sync.RWMutex
	subs       map[string]*Subscription
	store      ReconcileStore
	dispatcher notify.Dispatcher
	logger     *logger.Logger
	buffer     int
}

// New creates a hub with the given per-subscriber buffer capacity
func New(store ReconcileStore, dispatcher notify.Dispatcher, log *logger.Logger, buffer int) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subs:       make(map[string]*Subscription),
		store:      store,
		dispatcher: dispatcher,
		logger:     log,
		buffer:     buffer,
	}
}

// Subscribe registers a role-filtered listener and returns its live handle.
// Kitchen and bar roles are forced onto their station filter regardless of
// what the caller passed, so a display cannot accidentally widen its view.
func (h *Hub) Subscribe(role models.SubscriberRole, filter models.EventFilter) *Subscription {
	switch role {
	case models.RoleKitchen:
		filter.Station = models.StationKitchen
	case models.RoleBar:
		filter.Station = models.StationBar
	}

	sub := &Subscription{
		ID:     uuid.NewString(),
		Role:   role,
		Filter: filter,
		hub:    h,
		ch:     make(chan models.OrderEvent, h.buffer),
	}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	h.mu.Unlock()

	h.logger.Debug("subscriber_added", "Subscriber registered", "", map[string]interface{}{
		"subscription_id": sub.ID,
		"role":            string(role),
		"station":         string(filter.Station),
		"table_id":        filter.TableID,
	})
	return sub
}

// Unsubscribe stops delivery to the subscription. Idempotent.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	_, present := h.subs[sub.ID]
	if present {
		delete(h.subs, sub.ID)
	}
	h.mu.Unlock()

	if !present {
		return
	}
	close(sub.ch)
	h.logger.Debug("subscriber_removed", "Subscriber unregistered", "", map[string]interface{}{
		"subscription_id": sub.ID,
		"role":            string(sub.Role),
	})
}

// Publish delivers one lifecycle event to every matching subscriber. The
// filter predicate runs per event at delivery time; there is one event
// stream, not per-role copies. Callers (the lifecycle engine) publish while
// holding the per-order lock, which preserves causal order per order id.
func (h *Hub) Publish(event models.OrderEvent) {
	h.mu.RLock()
	for _, sub := range h.subs {
		if !sub.Filter.Matches(&event) {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Subscriber is full or gone; it will catch up via Reconcile.
			h.logger.Debug("event_dropped", "Subscriber buffer full, event dropped", "", map[string]interface{}{
				"subscription_id": sub.ID,
				"role":            string(sub.Role),
				"order_id":        event.OrderID,
				"new_status":      string(event.New),
			})
		}
	}
	h.mu.RUnlock()

	h.maybeNotify(event)
}

// Reconcile returns the current snapshot of open orders matching the
// filter. A subscriber that was disconnected calls this after resubscribing
// to converge on the true state.
func (h *Hub) Reconcile(ctx context.Context, filter models.EventFilter) ([]models.Order, error) {
	orders, err := h.store.ListOpenOrders(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.Order
	for i := range orders {
		if filter.MatchesOrder(&orders[i]) {
			out = append(out, orders[i])
		}
	}
	return out, nil
}

// SubscriberCount reports the number of live subscriptions
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// maybeNotify pushes out-of-band alerts for the transitions that warrant
// them: order creation (staff stations) and readiness (the table). Dispatch
// is best-effort and asynchronous; failures are logged and swallowed, never
// surfaced to the operation that triggered them.
func (h *Hub) maybeNotify(event models.OrderEvent) {
	var msg notify.Message
	switch {
	case event.Created():
		msg = notify.Message{
			Target: notify.Target{Topic: "staff.orders"},
			Title:  "New order",
			Body:   fmt.Sprintf("Order %s placed at table %s", event.OrderNumber, event.TableID),
			Link:   "/orders/" + event.OrderID,
		}
	case event.New == models.StatusReady:
		msg = notify.Message{
			Target: notify.Target{Topic: "table." + event.TableID},
			Title:  "Order ready",
			Body:   fmt.Sprintf("Order %s is ready", event.OrderNumber),
			Link:   "/orders/" + event.OrderID,
		}
	default:
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := h.dispatcher.Dispatch(ctx, msg); err != nil {
			h.logger.Error("notification_dispatch_failed", "Notification dispatch failed", "", err, map[string]interface{}{
				"order_id": event.OrderID,
				"topic":    msg.Target.Topic,
			})
		}
	}()
}
