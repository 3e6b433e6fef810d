package client

import "github.com/orma-app/orma/internal/model"

// Re-export the shared domain types so SDK callers work with a single
// package.
type (
	Mark        = model.Mark
	MarkInput   = model.MarkInput
	Position    = model.Position
	QuotaStatus = model.QuotaStatus
)

// Order keys accepted by list queries.
const (
	OrderByCreatedAt      = model.OrderByCreatedAt
	OrderByCreatedAtLocal = model.OrderByCreatedAtLocal
)
