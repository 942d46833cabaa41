/*
release.go - Reservation release collaborator contract

PURPOSE:
  When the last reservation line leaves a cart (expiry, removal, checkout),
  the booking backend must be told the slot is free again. Concurrent tabs
  can race to trigger this, so the call must be safe to fire redundantly:
  past the first success the collaborator answers with an "already released"
  or "missing" status rather than an error.
*/
package cart

import "context"

type ReleaseStatus string

const (
	ReleaseStatusReleased ReleaseStatus = "released"
	ReleaseStatusMissing  ReleaseStatus = "missing"
)

type ReleaseResult struct {
	Released bool
	Status   ReleaseStatus
}

// Release reasons passed to the collaborator.
const (
	ReleaseReasonExpired    = "hold_expired"
	ReleaseReasonRemoved    = "line_removed"
	ReleaseReasonCheckedOut = "checkout_complete"
)

// ReleaseNotifier notifies the booking backend that a session's hold is no
// longer needed. Idempotent: redundant calls return Released=false with
// StatusMissing, never an error.
type ReleaseNotifier interface {
	ReleaseHold(ctx context.Context, sessionRef, reason string) (ReleaseResult, error)
}
