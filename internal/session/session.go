package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wolfpack-orders/internal/catalog"
	"wolfpack-orders/internal/gate"
	"wolfpack-orders/internal/lifecycle"
	"wolfpack-orders/internal/locking"
	"wolfpack-orders/internal/logger"
	"wolfpack-orders/internal/models"
)

// Store is the session persistence the service needs
type Store interface {
	GetSession(ctx context.Context, tableID string) (*models.TableSession, bool, error)
	SaveSession(ctx context.Context, sess *models.TableSession) error
	DeleteSession(ctx context.Context, tableID string) error
}

// Service owns the customer-facing cart for each table. All mutation of one
// table's session goes through a per-table mutex, so two racing add-item
// calls cannot corrupt the total.
type Service struct {
	store       Store
	catalog     catalog.Catalog
	gate        *gate.Gate
	engine      *lifecycle.Engine
	logger      *logger.Logger
	deliveryFee float64
	locks       *locking.KeyedMutex
}

// NewService creates a table session service
func NewService(store Store, cat catalog.Catalog, g *gate.Gate, engine *lifecycle.Engine, log *logger.Logger, deliveryFee float64) *Service {
	return &Service{
		store:       store,
		catalog:     cat,
		gate:        g,
		engine:      engine,
		logger:      log,
		deliveryFee: deliveryFee,
		locks:       locking.NewKeyedMutex(),
	}
}

// AddItem adds a menu item to the table's cart, creating the session on the
// first add. Adding the same item with the same customizations merges into
// the existing line.
func (s *Service) AddItem(ctx context.Context, tableID, menuItemID string, quantity int, customizations string) (*models.TableSession, error) {
	if quantity < 1 {
		return nil, models.ErrInvalidQuantity
	}

	item, err := s.catalog.GetItem(ctx, menuItemID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, models.ErrItemUnavailable
	}

	s.locks.Lock(tableID)
	defer s.locks.Unlock(tableID)

	sess, found, err := s.store.GetSession(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if !found {
		sess = &models.TableSession{
			ID:          uuid.NewString(),
			TableID:     tableID,
			DeliveryFee: s.deliveryFee,
			CreatedAt:   time.Now().UTC(),
		}
	}

	if idx := sess.FindLine(menuItemID, customizations); idx >= 0 {
		sess.Items[idx].Quantity += quantity
	} else {
		sess.Items = append(sess.Items, models.CartItem{
			ID:             uuid.NewString(),
			MenuItemID:     item.ID,
			Name:           item.Name,
			Station:        item.Station,
			UnitPrice:      item.Price,
			Quantity:       quantity,
			Customizations: customizations,
		})
	}

	if err := s.store.SaveSession(ctx, sess); err != nil {
		return nil, err
	}

	s.logger.Debug("cart_item_added", "Item added to table session", "", map[string]interface{}{
		"table_id":  tableID,
		"item_name": item.Name,
		"quantity":  quantity,
		"total":     sess.Total(),
	})
	return sess, nil
}

// RemoveItem removes a cart line. Removing an absent line is a no-op, not
// an error.
func (s *Service) RemoveItem(ctx context.Context, tableID, cartItemID string) (*models.TableSession, error) {
	s.locks.Lock(tableID)
	defer s.locks.Unlock(tableID)

	sess, found, err := s.store.GetSession(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if !found {
		return &models.TableSession{TableID: tableID, DeliveryFee: s.deliveryFee}, nil
	}

	idx := sess.FindItem(cartItemID)
	if idx < 0 {
		return sess, nil
	}
	sess.Items = append(sess.Items[:idx], sess.Items[idx+1:]...)

	if err := s.store.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// UpdateQuantity changes a cart line's quantity. Quantity zero removes the
// line; negative quantities are rejected.
func (s *Service) UpdateQuantity(ctx context.Context, tableID, cartItemID string, quantity int) (*models.TableSession, error) {
	if quantity < 0 {
		return nil, models.ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, tableID, cartItemID)
	}

	s.locks.Lock(tableID)
	defer s.locks.Unlock(tableID)

	sess, found, err := s.store.GetSession(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if !found {
		return &models.TableSession{TableID: tableID, DeliveryFee: s.deliveryFee}, nil
	}

	idx := sess.FindItem(cartItemID)
	if idx < 0 {
		return sess, nil
	}
	sess.Items[idx].Quantity = quantity

	if err := s.store.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// GetSession returns the table's current session. A table without an active
// session reads as an empty cart.
func (s *Service) GetSession(ctx context.Context, tableID string) (*models.TableSession, error) {
	sess, found, err := s.store.GetSession(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if !found {
		return &models.TableSession{TableID: tableID, DeliveryFee: s.deliveryFee}, nil
	}
	return sess, nil
}

// GetTotal returns the recomputed total for the table's cart
func (s *Service) GetTotal(ctx context.Context, tableID string) (float64, error) {
	sess, err := s.GetSession(ctx, tableID)
	if err != nil {
		return 0, err
	}
	return sess.Total(), nil
}

// Submit checks out the table's cart. The access gate is consulted first; a
// denial returns AccessDeniedError with no side effects. On approval the
// cart is snapshotted into a new pending order and cleared, atomically, and
// the new order is returned. A nil memberID is a walk-up order.
func (s *Service) Submit(ctx context.Context, tableID string, memberID *string) (*models.Order, error) {
	decision, err := s.gate.Authorize(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, &models.AccessDeniedError{Reason: decision.Reason}
	}

	s.locks.Lock(tableID)
	defer s.locks.Unlock(tableID)

	sess, found, err := s.store.GetSession(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if !found || sess.Empty() {
		return nil, models.ErrEmptyCart
	}

	order, err := s.engine.CreateFromSession(ctx, sess, memberID, "table-session")
	if err != nil {
		return nil, err
	}

	s.logger.Info("cart_submitted", "Table session submitted as order", "", map[string]interface{}{
		"table_id":     tableID,
		"order_id":     order.ID,
		"order_number": order.Number,
		"total_amount": order.TotalAmount,
	})
	return order, nil
}

// Abandon explicitly discards the table's session
func (s *Service) Abandon(ctx context.Context, tableID string) error {
	s.locks.Lock(tableID)
	defer s.locks.Unlock(tableID)

	if err := s.store.DeleteSession(ctx, tableID); err != nil {
		return err
	}
	s.logger.Info("cart_abandoned", "Table session abandoned", "", map[string]interface{}{
		"table_id": tableID,
	})
	return nil
}
