package auth

import (
	"github.com/rs/zerolog/log"

	"github.com/orma-app/orma/internal/config"
	"github.com/orma-app/orma/internal/model"
)

// NewAuthorizer selects the authorizer implementation for the given config.
// Dev mode gets the mock; everything else gets a static table seeded from
// configured tokens.
func NewAuthorizer(cfg *config.Config) Authorizer {
	if cfg.DevMode {
		log.Warn().Msg("auth: dev mode enabled, accepting the local dev token only")
		return NewMockAuthorizer()
	}
	principals := make(map[string]model.Principal, len(cfg.AuthTokens))
	for token, name := range cfg.AuthTokens {
		principals[token] = model.Principal{ID: name, DisplayName: name}
	}
	return NewStaticAuthorizer(principals)
}
