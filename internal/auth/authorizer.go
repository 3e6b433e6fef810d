package auth

import (
	"context"

	"github.com/orma-app/orma/internal/model"
)

// Authorizer resolves a bearer token to the authenticated principal.
// Login/logout flows live with the auth provider, not here; the service
// only ever sees tokens.
type Authorizer interface {
	// Authorize validates the token and returns the principal behind it,
	// or ErrUnauthorized.
	Authorize(ctx context.Context, token string) (*model.Principal, error)
}
