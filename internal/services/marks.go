package services

import (
	"context"
	"time"

	"github.com/orma-app/orma/internal/events"
	"github.com/orma-app/orma/internal/model"
	"github.com/orma-app/orma/internal/store"
)

// MarkService orchestrates mark use cases: creation, recency queries and
// advisory quota reporting.
type MarkService struct {
	store       store.Store
	bus         *events.Bus
	quotaMax    int
	quotaWindow time.Duration
}

func NewMarkService(s store.Store, bus *events.Bus, quotaMax int, quotaWindow time.Duration) *MarkService {
	return &MarkService{store: s, bus: bus, quotaMax: quotaMax, quotaWindow: quotaWindow}
}

// CreateMark validates and persists a mark authored by the given principal,
// then announces it on the event bus. The quota is advisory: two writers
// racing past the limit both succeed, the ceiling is enforced at submission
// time by clients.
func (s *MarkService) CreateMark(ctx context.Context, p *model.Principal, in *model.MarkInput) (*model.Mark, error) {
	in.AuthorID = p.ID
	in.AuthorLabel = p.DisplayName
	in.AuthorPhotoURL = p.PhotoURL
	if err := in.Validate(); err != nil {
		return nil, err
	}
	m, err := s.store.Marks().Append(ctx, in)
	if err != nil {
		return nil, err
	}
	if s.bus != nil {
		s.bus.Publish(events.Event{Kind: events.EventMarkCreated, MarkID: m.ID})
	}
	return m, nil
}

// ListRecent returns the newest marks first, capped at limit.
func (s *MarkService) ListRecent(ctx context.Context, limit int, orderBy model.OrderKey) ([]*model.Mark, error) {
	return s.store.Marks().List(ctx, model.ListMarksRequest{
		Limit:   limit,
		OrderBy: orderBy,
	})
}

// ListByAuthorSince returns marks by one author newer than since.
func (s *MarkService) ListByAuthorSince(ctx context.Context, authorID string, since time.Time, limit int, orderBy model.OrderKey) ([]*model.Mark, error) {
	return s.store.Marks().List(ctx, model.ListMarksRequest{
		AuthorID: authorID,
		Since:    &since,
		Limit:    limit,
		OrderBy:  orderBy,
	})
}

// GetMark returns a single mark by id.
func (s *MarkService) GetMark(ctx context.Context, id string) (*model.Mark, error) {
	return s.store.Marks().GetByID(ctx, id)
}

// QuotaStatus counts the principal's marks inside the rolling window and
// reports how many submissions remain. The count is capped at the window
// ceiling, so the query never scans more rows than it needs.
func (s *MarkService) QuotaStatus(ctx context.Context, authorID string) (*model.QuotaStatus, error) {
	since := time.Now().UTC().Add(-s.quotaWindow)
	recent, err := s.store.Marks().List(ctx, model.ListMarksRequest{
		AuthorID: authorID,
		Since:    &since,
		Limit:    s.quotaMax,
		OrderBy:  model.OrderByCreatedAtLocal,
	})
	if err != nil {
		return nil, err
	}
	remaining := s.quotaMax - len(recent)
	if remaining < 0 {
		remaining = 0
	}
	return &model.QuotaStatus{
		Allowed:   remaining > 0,
		Remaining: remaining,
	}, nil
}

// QuotaMax exposes the configured ceiling for the policy endpoint.
func (s *MarkService) QuotaMax() int { return s.quotaMax }

// QuotaWindow exposes the configured rolling window for the policy endpoint.
func (s *MarkService) QuotaWindow() time.Duration { return s.quotaWindow }
