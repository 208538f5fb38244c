// Package idempotency remembers Idempotency-Key headers on review
// submissions so that a repeated request returns the review created by the
// first one instead of writing a duplicate.
package idempotency

import (
	"context"
	"time"
)

// Record is what is known about a key that was already used. An empty
// ReviewID means the first request has not finished yet.
type Record struct {
	ReviewID string
}

// InFlight reports whether the first request is still running.
func (r Record) InFlight() bool { return r.ReviewID == "" }

// Store tracks keys for a bounded time.
type Store interface {
	// Begin claims key. It returns nil if the caller now owns the key, or the
	// existing record if the key was claimed before.
	Begin(ctx context.Context, key string) (*Record, error)

	// Finish records the review created under key.
	Finish(ctx context.Context, key, reviewID string) error

	// Abort releases key after a failed write so the client may retry.
	Abort(ctx context.Context, key string) error
}

const (
	keyPrefix     = "showcase:idempotency:"
	pendingMarker = "\x00pending"
)

// DefaultTTL is how long finished keys are remembered unless configured
// otherwise.
const DefaultTTL = 24 * time.Hour

// PendingTTL bounds an unfinished claim. A process that dies between Begin
// and Finish or Abort blocks the key for at most this long.
const PendingTTL = 30 * time.Second

func pendingTTL(ttl time.Duration) time.Duration {
	return min(ttl, PendingTTL)
}
