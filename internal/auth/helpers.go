package auth

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrUnauthorized is returned when a token is missing, malformed, or unknown.
	ErrUnauthorized = errors.New("unauthorized")
)

// ExtractBearer pulls the bearer token out of an Authorization header.
// Expected format: "Bearer <token>".
func ExtractBearer(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", errors.Wrap(ErrUnauthorized, "missing Authorization header")
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.Wrap(ErrUnauthorized, "invalid Authorization header format, expected 'Bearer <token>'")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.Wrap(ErrUnauthorized, "empty bearer token")
	}
	return token, nil
}
