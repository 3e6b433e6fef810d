package client

import (
	"context"
	"time"
)

// GeoStore is the read/write surface the submission controller and renderers
// work against. The production implementation is *Client over the REST API;
// tests substitute fakes.
type GeoStore interface {
	// Append persists a new mark and returns its server-assigned id.
	Append(ctx context.Context, in MarkInput) (string, error)

	// QueryRecent returns the newest marks first. When the primary
	// createdAt-ordered query fails or comes back empty, the same query is
	// retried ordered by createdAtLocal, so rows whose authoritative
	// timestamp has not propagated still appear.
	QueryRecent(ctx context.Context, limit int) ([]*Mark, error)

	// QueryByAuthorSince returns one author's marks newer than since.
	QueryByAuthorSince(ctx context.Context, authorID string, since time.Time, limit int) ([]*Mark, error)

	// Subscribe opens a lazy, unbounded sequence of full snapshots. Each
	// delivered slice replaces the previous one wholesale.
	Subscribe(ctx context.Context, limit int) (*Subscription, error)
}

// Subscription delivers full snapshots until canceled. The last successfully
// delivered snapshot remains valid after cancellation; no further snapshots
// arrive once Cancel returns.
type Subscription struct {
	snapshots chan []*Mark
	cancel    context.CancelFunc
}

// Snapshots is the stream of full mark sets, newest first. The channel
// closes after cancellation or when the upstream connection is lost for good.
func (s *Subscription) Snapshots() <-chan []*Mark { return s.snapshots }

// Cancel stops the subscription. Safe to call multiple times.
func (s *Subscription) Cancel() { s.cancel() }
