package auth

import (
	"context"
	"sync"

	"github.com/orma-app/orma/internal/model"
)

// StaticAuthorizer maps pre-shared tokens to principals. It backs
// single-tenant and self-hosted deployments where an external identity
// provider is overkill.
type StaticAuthorizer struct {
	mu         sync.RWMutex
	principals map[string]model.Principal
}

// NewStaticAuthorizer builds an authorizer over a fixed token->principal table.
func NewStaticAuthorizer(principals map[string]model.Principal) *StaticAuthorizer {
	cp := make(map[string]model.Principal, len(principals))
	for k, v := range principals {
		cp[k] = v
	}
	return &StaticAuthorizer{principals: cp}
}

// Register adds or replaces the principal for a token.
func (a *StaticAuthorizer) Register(token string, p model.Principal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.principals[token] = p
}

func (a *StaticAuthorizer) Authorize(_ context.Context, token string) (*model.Principal, error) {
	a.mu.RLock()
	p, ok := a.principals[token]
	a.mu.RUnlock()
	if !ok {
		return nil, ErrUnauthorized
	}
	out := p
	return &out, nil
}
