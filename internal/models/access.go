package models

import "time"

// VenueLocation is one of the fixed set of venues a member can check in at
type VenueLocation string

const (
	LocationSalem    VenueLocation = "salem"
	LocationPortland VenueLocation = "portland"
)

// LocationState is the live presence record for a member, produced by the
// external presence-verification mechanism. The core only ever reads it.
type LocationState struct {
	MemberID  string        `json:"member_id"`
	Location  VenueLocation `json:"location"`
	Verified  bool          `json:"verified"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Fresh reports whether the record was updated within the freshness window
func (ls *LocationState) Fresh(window time.Duration, now time.Time) bool {
	return now.Sub(ls.UpdatedAt) <= window
}

// MembershipState is the membership record for a member
type MembershipState struct {
	MemberID string `json:"member_id"`
	Active   bool   `json:"active"`
	Role     string `json:"role"`
}

// DenyReason explains why an AccessDecision refused checkout
type DenyReason string

const (
	DenyNone          DenyReason = "none"
	DenyNotMember     DenyReason = "not-member"
	DenyNotAtLocation DenyReason = "not-at-location"
)

// AccessDecision is the derived result of the access gate. It is computed
// per call and never persisted.
type AccessDecision struct {
	Allowed bool       `json:"allowed"`
	Reason  DenyReason `json:"reason"`
}
