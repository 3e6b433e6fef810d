package store

import (
	"context"

	"github.com/orma-app/orma/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Marks() Marks
	// HealthPing verifies connectivity to the backing database.
	HealthPing(ctx context.Context) error
}

// Marks is the append-only collection of marks ("segni"). There is no
// update or delete: a mark is immutable after creation.
type Marks interface {
	// Append persists a new mark, assigning its ID and the authoritative
	// created_at timestamp. The caller-provided CreatedAtLocal is stored
	// verbatim as the fallback ordering key.
	Append(ctx context.Context, in *model.MarkInput) (*model.Mark, error)

	// List returns marks newest-first by the requested order key,
	// optionally filtered by author and lower time bound.
	List(ctx context.Context, req model.ListMarksRequest) ([]*model.Mark, error)

	// GetByID returns a single mark or model.ErrNotFound.
	GetByID(ctx context.Context, id string) (*model.Mark, error)
}
