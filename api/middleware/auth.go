package middleware

import (
	"net/http"
	"strings"

	"github.com/mintforge/collections-backend/api/responses"
	pkgauth "github.com/mintforge/collections-backend/pkg/auth"
	"github.com/mintforge/collections-backend/pkg/config"
	pkgerrors "github.com/mintforge/collections-backend/pkg/errors"
	"github.com/mintforge/collections-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// signer address recovered upstream. Relayed meta-transaction calls carry
// the original signer in the claims, so handlers never see the relay.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.Caller.IsZero() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing caller address"))
				return
			}

			ctx := WithCaller(r.Context(), claims.Caller)
			ctx = WithRelayed(ctx, claims.Relayed)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"caller":  claims.Caller.Hex(),
					"relayed": claims.Relayed,
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
