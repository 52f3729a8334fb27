package models

import (
	"errors"
	"fmt"
)

// Validation and state errors surfaced to callers. These are resolved at the
// boundary nearest the caller and never retried by the core.
var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemUnavailable = errors.New("menu item is unavailable")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrItemNotFound    = errors.New("menu item not found")
	ErrOrderNotFound   = errors.New("order not found")

	// ErrStaleOrderState signals a lost concurrent modification race. The
	// caller should re-fetch the order and decide whether to retry.
	ErrStaleOrderState = errors.New("order was modified concurrently")
)

// AccessDeniedError is a policy refusal from the access gate, not a fault.
// The member must re-verify location or membership before retrying.
type AccessDeniedError struct {
	Reason DenyReason
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Reason)
}

// InvalidTransitionError rejects a status change not permitted by the order
// state machine. The order is left unchanged.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.From, e.To)
}

// DependencyError wraps a failed or timed-out external capability call
// (persistence, presence, membership, catalog). It propagates to the caller
// unchanged and is never silently mapped to an allow or deny outcome.
type DependencyError struct {
	Dependency string
	Err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency %s unavailable: %v", e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}
