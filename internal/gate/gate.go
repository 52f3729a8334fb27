package gate

import (
	"context"
	"time"

	"wolfpack-orders/internal/models"
	"wolfpack-orders/internal/presence"
)

// Gate decides whether a member may check out, combining membership status
// with live, verified location state. It is read-only: it never mutates
// membership or presence records.
type Gate struct {
	membership presence.MembershipReader
	location   presence.PresenceReader
	freshness  time.Duration
	now        func() time.Time
}

// New creates a gate with the configured location freshness window
func New(membership presence.MembershipReader, location presence.PresenceReader, freshness time.Duration) *Gate {
	return &Gate{
		membership: membership,
		location:   location,
		freshness:  freshness,
		now:        time.Now,
	}
}

// Authorize evaluates checkout policy for a member, membership first and
// short-circuiting. A nil memberID is a walk-up table order: those bypass
// the gate entirely and are always allowed, matching point-of-sale behavior
// for anonymous customers physically seated at a table.
//
// Dependency failures are returned as errors, never folded into an allow or
// deny decision: the gate fails closed by failing visibly.
func (g *Gate) Authorize(ctx context.Context, memberID *string) (models.AccessDecision, error) {
	if memberID == nil {
		// Walk-up order without a member account.
		return models.AccessDecision{Allowed: true, Reason: models.DenyNone}, nil
	}

	member, found, err := g.membership.GetMembershipState(ctx, *memberID)
	if err != nil {
		return models.AccessDecision{}, err
	}
	if !found || !member.Active {
		return models.AccessDecision{Allowed: false, Reason: models.DenyNotMember}, nil
	}

	loc, found, err := g.location.GetLocationState(ctx, *memberID)
	if err != nil {
		return models.AccessDecision{}, err
	}
	if !found || !loc.Verified || !loc.Fresh(g.freshness, g.now()) {
		return models.AccessDecision{Allowed: false, Reason: models.DenyNotAtLocation}, nil
	}

	return models.AccessDecision{Allowed: true, Reason: models.DenyNone}, nil
}
