package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mintforge/collections-backend/api/responses"
	pkgerrors "github.com/mintforge/collections-backend/pkg/errors"
	"github.com/mintforge/collections-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit throttles authenticated callers with a fixed window per address.
// The limiter fails open when redis is unavailable so a cache outage does not
// take the write path down with it.
func RateLimit(store rateLimiterStore, limit int64, window time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if store == nil || limit <= 0 || window <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			caller := CallerFromContext(r.Context())
			if caller.IsZero() {
				next.ServeHTTP(w, r)
				return
			}

			scope := fmt.Sprintf("caller:%s", caller.Hex())
			allowed, count, err := store.FixedWindowAllow(r.Context(), scope, limit, window)
			if err != nil {
				logError(r.Context(), logg, "rate limit check", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests").
						WithDetails(map[string]any{"count": count, "window": window.String()}))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
