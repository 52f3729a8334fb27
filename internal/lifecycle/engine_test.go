package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"

	"wolfpack-orders/internal/database"
	"wolfpack-orders/internal/logger"
	"wolfpack-orders/internal/models"
)

// captureSink records every published event for assertions
type captureSink struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (c *captureSink) Publish(event models.OrderEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureSink) all() []models.OrderEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.OrderEvent, len(c.events))
	copy(out, c.events)
	return out
}

func newTestEngine(t *testing.T) (*Engine, *captureSink) {
	t.Helper()
	sink := &captureSink{}
	engine := NewEngine(database.NewMemoryStore(), sink, logger.New("test"))
	return engine, sink
}

func testSession(tableID string) *models.TableSession {
	return &models.TableSession{
		ID:      "sess-" + tableID,
		TableID: tableID,
		Items: []models.CartItem{
			{ID: "ci-1", MenuItemID: "burger", Name: "Burger", Station: models.StationKitchen, UnitPrice: 10.00, Quantity: 1},
			{ID: "ci-2", MenuItemID: "ipa-pint", Name: "IPA", Station: models.StationBar, UnitPrice: 7.00, Quantity: 2},
		},
	}
}

// orderAt creates an order and walks it to the wanted status
func orderAt(t *testing.T, engine *Engine, status models.OrderStatus) *models.Order {
	t.Helper()
	ctx := context.Background()

	order, err := engine.CreateFromSession(ctx, testSession("5"), nil, "test")
	if err != nil {
		t.Fatalf("CreateFromSession: %v", err)
	}

	var path []models.OrderStatus
	switch status {
	case models.StatusPending:
	case models.StatusPreparing:
		path = []models.OrderStatus{models.StatusPreparing}
	case models.StatusReady:
		path = []models.OrderStatus{models.StatusPreparing, models.StatusReady}
	case models.StatusDelivered:
		path = []models.OrderStatus{models.StatusPreparing, models.StatusReady, models.StatusDelivered}
	case models.StatusCancelled:
		path = []models.OrderStatus{models.StatusCancelled}
	}
	for _, next := range path {
		if order, err = engine.Transition(ctx, order.ID, next, "test"); err != nil {
			t.Fatalf("walking order to %s: %v", status, err)
		}
	}
	return order
}

func TestTransitionTableClosure(t *testing.T) {
	statuses := []models.OrderStatus{
		models.StatusPending, models.StatusPreparing, models.StatusReady,
		models.StatusDelivered, models.StatusCancelled,
	}

	// Every status pair must behave exactly as the transition table says:
	// allowed pairs succeed, everything else fails and leaves the order
	// untouched.
	for _, from := range statuses {
		for _, to := range statuses {
			engine, _ := newTestEngine(t)
			order := orderAt(t, engine, from)

			updated, err := engine.Transition(context.Background(), order.ID, to, "test")
			if models.CanTransition(from, to) {
				if err != nil {
					t.Errorf("%s -> %s should succeed, got %v", from, to, err)
					continue
				}
				if updated.Status != to {
					t.Errorf("%s -> %s left order in %s", from, to, updated.Status)
				}
				continue
			}

			var invalid *models.InvalidTransitionError
			if !errors.As(err, &invalid) {
				t.Errorf("%s -> %s should fail with InvalidTransitionError, got %v", from, to, err)
			}
			current, getErr := engine.GetOrder(context.Background(), order.ID)
			if getErr != nil {
				t.Fatalf("GetOrder: %v", getErr)
			}
			if current.Status != from {
				t.Errorf("failed %s -> %s changed status to %s", from, to, current.Status)
			}
		}
	}
}

func TestTransitionUnknownStatus(t *testing.T) {
	engine, _ := newTestEngine(t)
	order := orderAt(t, engine, models.StatusPending)

	_, err := engine.Transition(context.Background(), order.ID, "flambeed", "test")
	var invalid *models.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
}

func TestTransitionOrderNotFound(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.Transition(context.Background(), "no-such-order", models.StatusPreparing, "test")
	if !errors.Is(err, models.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestConcurrentTransitionExactlyOneWins(t *testing.T) {
	engine, _ := newTestEngine(t)
	order := orderAt(t, engine, models.StatusPending)

	const racers = 10
	var wg sync.WaitGroup
	results := make(chan error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Transition(context.Background(), order.ID, models.StatusPreparing, "racer")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		var invalid *models.InvalidTransitionError
		if errors.As(err, &invalid) || errors.Is(err, models.ErrStaleOrderState) {
			losses++
			continue
		}
		t.Errorf("unexpected racer error: %v", err)
	}

	if wins != 1 {
		t.Errorf("expected exactly 1 winning transition, got %d (losses %d)", wins, losses)
	}

	final, err := engine.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if final.Status != models.StatusPreparing {
		t.Errorf("final status = %s, want preparing", final.Status)
	}
}

func TestCancelRecordsReason(t *testing.T) {
	engine, _ := newTestEngine(t)
	order := orderAt(t, engine, models.StatusPreparing)

	cancelled, err := engine.Cancel(context.Background(), order.ID, "kitchen out of stock", "manager")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != models.StatusCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if cancelled.CancelReason == nil || *cancelled.CancelReason != "kitchen out of stock" {
		t.Errorf("cancel reason not recorded: %v", cancelled.CancelReason)
	}

	history, err := engine.GetHistory(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	last := history[len(history)-1]
	if last.Status != models.StatusCancelled || last.ChangedBy != "manager" {
		t.Errorf("unexpected last history entry: %+v", last)
	}
}

func TestEventEmission(t *testing.T) {
	engine, sink := newTestEngine(t)
	ctx := context.Background()

	order, err := engine.CreateFromSession(ctx, testSession("9"), nil, "test")
	if err != nil {
		t.Fatalf("CreateFromSession: %v", err)
	}
	if _, err := engine.Transition(ctx, order.ID, models.StatusPreparing, "cook"); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	events := sink.all()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	if !events[0].Created() {
		t.Errorf("first event should announce creation: %+v", events[0])
	}
	if len(events[0].Stations) != 2 {
		t.Errorf("creation event should carry both stations, got %v", events[0].Stations)
	}

	if events[1].Previous != models.StatusPending || events[1].New != models.StatusPreparing {
		t.Errorf("transition event carries wrong statuses: %+v", events[1])
	}
	if events[1].OrderID != order.ID {
		t.Errorf("transition event for wrong order: %s", events[1].OrderID)
	}
}

func TestFailedTransitionEmitsNoEvent(t *testing.T) {
	engine, sink := newTestEngine(t)
	order := orderAt(t, engine, models.StatusDelivered)

	before := len(sink.all())
	if _, err := engine.Transition(context.Background(), order.ID, models.StatusPreparing, "test"); err == nil {
		t.Fatal("expected transition out of delivered to fail")
	}
	if after := len(sink.all()); after != before {
		t.Errorf("failed transition emitted %d events", after-before)
	}
}
