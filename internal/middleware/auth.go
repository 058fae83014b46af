package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"order-desk/internal/config"
	"order-desk/internal/model"

	"github.com/rs/zerolog"
)

const (
	apiKeyHeader = "X-API-Key"
	userIDHeader = "X-User-ID"

	defaultAdminID = "admin"
)

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the authenticated caller. The zero Principal
// is returned for unauthenticated requests.
func PrincipalFromContext(ctx context.Context) model.Principal {
	p, _ := ctx.Value(principalKey{}).(model.Principal)
	return p
}

// Authenticate resolves the caller from the X-API-Key header.
//
// The admin key yields an admin principal, identified by X-User-ID when
// present. The client key yields a customer principal and requires
// X-User-ID, which the upstream session layer sets.
func Authenticate(auth config.AuthConfig, logger zerolog.Logger) func(http.Handler) http.Handler {
	adminKey := []byte(auth.AdminAPIKey)
	clientKey := []byte(auth.ClientAPIKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			providedKey := r.Header.Get(apiKeyHeader)
			if providedKey == "" {
				logger.Warn().Str("path", r.URL.Path).Msg("missing API key")
				writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, "missing API key")
				return
			}

			userID := strings.TrimSpace(r.Header.Get(userIDHeader))

			var p model.Principal
			switch {
			case subtle.ConstantTimeCompare([]byte(providedKey), adminKey) == 1:
				if userID == "" {
					userID = defaultAdminID
				}
				p = model.Principal{UserID: userID, Role: model.RoleAdmin}
			case subtle.ConstantTimeCompare([]byte(providedKey), clientKey) == 1:
				if userID == "" {
					logger.Warn().Str("path", r.URL.Path).Msg("client request without user ID")
					writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, "missing "+userIDHeader+" header")
					return
				}
				p = model.Principal{UserID: userID, Role: model.RoleCustomer}
			default:
				logger.Warn().
					Str("path", r.URL.Path).
					Str("provided_key", providedKey[:min(4, len(providedKey))]).
					Msg("invalid API key")
				writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorised, "invalid API key")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
