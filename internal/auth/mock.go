package auth

import (
	"context"

	"github.com/orma-app/orma/internal/model"
)

// DevToken is accepted by the mock authorizer in local development mode.
const DevToken = "orma_local_dev_token"

// MockAuthorizer accepts the dev token and returns a fixed principal.
// Used in dev mode and in tests; never enable it in production builds.
type MockAuthorizer struct {
	Principal model.Principal
}

// NewMockAuthorizer returns a mock with a default local principal.
func NewMockAuthorizer() *MockAuthorizer {
	return &MockAuthorizer{
		Principal: model.Principal{
			ID:          "local-dev-user",
			DisplayName: "Local Dev",
		},
	}
}

func (a *MockAuthorizer) Authorize(_ context.Context, token string) (*model.Principal, error) {
	if token != DevToken {
		return nil, ErrUnauthorized
	}
	out := a.Principal
	return &out, nil
}
