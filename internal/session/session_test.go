package session

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"wolfpack-orders/internal/catalog"
	"wolfpack-orders/internal/database"
	"wolfpack-orders/internal/gate"
	"wolfpack-orders/internal/lifecycle"
	"wolfpack-orders/internal/logger"
	"wolfpack-orders/internal/models"
	"wolfpack-orders/internal/presence"
)

type nopSink struct{}

func (nopSink) Publish(models.OrderEvent) {}

func testCatalog() catalog.Catalog {
	categories := []models.Category{
		{ID: "mains", Name: "Mains", Station: models.StationKitchen, Sort: 1},
		{ID: "beer", Name: "Beer", Station: models.StationBar, Sort: 2},
	}
	items := []models.MenuItem{
		{ID: "burger", Name: "Burger", Price: 10.00, Available: true, CategoryID: "mains"},
		{ID: "ipa-pint", Name: "IPA Pint", Price: 7.00, Available: true, CategoryID: "beer"},
		{ID: "ribeye", Name: "Ribeye", Price: 24.00, Available: false, CategoryID: "mains"},
	}
	return catalog.NewStatic(categories, items)
}

func newTestService(t *testing.T, deliveryFee float64) (*Service, *presence.MemoryStore) {
	t.Helper()
	log := logger.New("test")
	store := database.NewMemoryStore()
	pres := presence.NewMemoryStore()
	engine := lifecycle.NewEngine(store, nopSink{}, log)
	g := gate.New(pres, pres, 10*time.Minute)
	return NewService(store, testCatalog(), g, engine, log, deliveryFee), pres
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAddItemMergesSameLine(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "4", "burger", 1, ""); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	sess, err := svc.AddItem(ctx, "4", "burger", 2, "")
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if len(sess.Items) != 1 {
		t.Fatalf("expected merged line, got %d lines", len(sess.Items))
	}
	if sess.Items[0].Quantity != 3 {
		t.Errorf("merged quantity = %d, want 3", sess.Items[0].Quantity)
	}
}

func TestAddItemSeparateCustomizations(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "4", "burger", 1, "no onions"); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	sess, err := svc.AddItem(ctx, "4", "burger", 1, "extra cheese")
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if len(sess.Items) != 2 {
		t.Errorf("different customizations should stay separate lines, got %d", len(sess.Items))
	}
}

func TestAddItemValidation(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	tests := []struct {
		name     string
		itemID   string
		quantity int
		wantErr  error
	}{
		{"zero quantity", "burger", 0, models.ErrInvalidQuantity},
		{"negative quantity", "burger", -2, models.ErrInvalidQuantity},
		{"unknown item", "ghost", 1, models.ErrItemNotFound},
		{"unavailable item", "ribeye", 1, models.ErrItemUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.AddItem(ctx, "4", tt.itemID, tt.quantity, ""); !errors.Is(err, tt.wantErr) {
				t.Errorf("AddItem = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTotalInvariant(t *testing.T) {
	svc, _ := newTestService(t, 2.50)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "4", "burger", 2, ""); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	sess, err := svc.AddItem(ctx, "4", "ipa-pint", 3, "")
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	// Total is always line totals plus delivery fee, recomputed from the
	// current contents.
	want := 2*10.00 + 3*7.00 + 2.50
	if !almostEqual(sess.Total(), want) {
		t.Errorf("Total() = %.2f, want %.2f", sess.Total(), want)
	}

	sess, err = svc.UpdateQuantity(ctx, "4", sess.Items[0].ID, 1)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	want = 1*10.00 + 3*7.00 + 2.50
	if !almostEqual(sess.Total(), want) {
		t.Errorf("Total() after update = %.2f, want %.2f", sess.Total(), want)
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	sess, err := svc.AddItem(ctx, "4", "burger", 2, "")
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	sess, err = svc.UpdateQuantity(ctx, "4", sess.Items[0].ID, 0)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if !sess.Empty() {
		t.Errorf("quantity zero should remove the line, got %d lines", len(sess.Items))
	}

	if _, err := svc.UpdateQuantity(ctx, "4", "anything", -1); !errors.Is(err, models.ErrInvalidQuantity) {
		t.Errorf("negative quantity = %v, want ErrInvalidQuantity", err)
	}
}

func TestRemoveAbsentItemIsNoop(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	sess, err := svc.AddItem(ctx, "4", "burger", 1, "")
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	got, err := svc.RemoveItem(ctx, "4", "not-a-line")
	if err != nil {
		t.Fatalf("RemoveItem on absent line should not fail: %v", err)
	}
	if len(got.Items) != len(sess.Items) {
		t.Errorf("no-op removal changed the cart")
	}
}

func TestSubmitEmptyCart(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "4", nil); !errors.Is(err, models.ErrEmptyCart) {
		t.Errorf("submitting a table with no session = %v, want ErrEmptyCart", err)
	}

	// A cart emptied back down to zero lines behaves the same.
	sess, err := svc.AddItem(ctx, "4", "burger", 1, "")
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := svc.RemoveItem(ctx, "4", sess.Items[0].ID); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if _, err := svc.Submit(ctx, "4", nil); !errors.Is(err, models.ErrEmptyCart) {
		t.Errorf("submitting an emptied cart = %v, want ErrEmptyCart", err)
	}
}

func TestSubmitWalkupOrder(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "12", "burger", 1, ""); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := svc.AddItem(ctx, "12", "ipa-pint", 2, ""); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	order, err := svc.Submit(ctx, "12", nil)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if order.TableID != "12" {
		t.Errorf("order table = %s, want 12", order.TableID)
	}
	if order.Status != models.StatusPending {
		t.Errorf("new order status = %s, want pending", order.Status)
	}
	if !almostEqual(order.TotalAmount, 24.00) {
		t.Errorf("order total = %.2f, want 24.00", order.TotalAmount)
	}
	if len(order.Items) != 2 {
		t.Errorf("order has %d lines, want 2", len(order.Items))
	}
	if order.MemberID != nil {
		t.Errorf("walk-up order should carry no member id")
	}

	// Submission clears the table's session.
	sess, err := svc.GetSession(ctx, "12")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if !sess.Empty() {
		t.Errorf("session not cleared after submit: %d lines", len(sess.Items))
	}
}

func TestSubmitMemberAtVenue(t *testing.T) {
	svc, pres := newTestService(t, 0)
	ctx := context.Background()

	pres.SetMembershipState(models.MembershipState{MemberID: "m1", Active: true})
	pres.SetLocationState(models.LocationState{
		MemberID:  "m1",
		Location:  models.LocationSalem,
		Verified:  true,
		UpdatedAt: time.Now().UTC(),
	})

	if _, err := svc.AddItem(ctx, "3", "ipa-pint", 1, ""); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	memberID := "m1"
	order, err := svc.Submit(ctx, "3", &memberID)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if order.MemberID == nil || *order.MemberID != "m1" {
		t.Errorf("order member = %v, want m1", order.MemberID)
	}
}

func TestSubmitDeniedLeavesCartIntact(t *testing.T) {
	svc, pres := newTestService(t, 0)
	ctx := context.Background()

	// Active member with a stale location record.
	pres.SetMembershipState(models.MembershipState{MemberID: "m2", Active: true})
	pres.SetLocationState(models.LocationState{
		MemberID:  "m2",
		Location:  models.LocationPortland,
		Verified:  true,
		UpdatedAt: time.Now().UTC().Add(-time.Hour),
	})

	if _, err := svc.AddItem(ctx, "8", "burger", 1, ""); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	memberID := "m2"
	_, err := svc.Submit(ctx, "8", &memberID)
	var denied *models.AccessDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected AccessDeniedError, got %v", err)
	}
	if denied.Reason != models.DenyNotAtLocation {
		t.Errorf("deny reason = %s, want not-at-location", denied.Reason)
	}

	// Denial has no side effects: the cart is exactly as it was.
	sess, err := svc.GetSession(ctx, "8")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if len(sess.Items) != 1 {
		t.Errorf("denied submit changed the cart: %d lines", len(sess.Items))
	}
}

func TestGetTotalEmptyTable(t *testing.T) {
	svc, _ := newTestService(t, 1.50)

	total, err := svc.GetTotal(context.Background(), "99")
	if err != nil {
		t.Fatalf("GetTotal: %v", err)
	}
	if !almostEqual(total, 1.50) {
		t.Errorf("empty table total = %.2f, want the delivery fee alone", total)
	}
}

func TestAbandonDiscardsSession(t *testing.T) {
	svc, _ := newTestService(t, 0)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "6", "burger", 1, ""); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := svc.Abandon(ctx, "6"); err != nil {
		t.Fatalf("Abandon: %v", err)
	}

	sess, err := svc.GetSession(ctx, "6")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if !sess.Empty() {
		t.Errorf("abandoned session still has %d lines", len(sess.Items))
	}
}
