package middleware

import (
	"net/http"
	"strings"

	"github.com/averyross/bookhaven-backend/api/responses"
	"github.com/averyross/bookhaven-backend/internal/identity"
	pkgauth "github.com/averyross/bookhaven-backend/pkg/auth"
	"github.com/averyross/bookhaven-backend/pkg/auth/session"
	"github.com/averyross/bookhaven-backend/pkg/config"
	pkgerrors "github.com/averyross/bookhaven-backend/pkg/errors"
	"github.com/averyross/bookhaven-backend/pkg/logger"
)

const deviceIDHeader = "X-Device-Id"

// Identity resolves the cart identity for the request. A valid bearer token
// yields an authenticated identity keyed by user ID; otherwise the client must
// supply a device ID header, which yields an anonymous identity. Requests
// carrying an invalid token are rejected rather than downgraded to anonymous.
func Identity(cfg config.JWTConfig, checker session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if token := bearerToken(r); token != "" {
				claims, err := pkgauth.ParseAccessToken(cfg, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				if checker != nil && claims.ID != "" {
					ok, err := checker.HasSession(ctx, claims.ID)
					if err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
						return
					}
					if !ok {
						responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
						return
					}
				}

				id := identity.Authenticated(claims.UserID.String())
				ctx = WithUserID(ctx, claims.UserID.String())
				ctx = WithIdentity(ctx, id)
				if logg != nil {
					ctx = logg.WithIdentity(ctx, id.String())
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			deviceID := strings.TrimSpace(r.Header.Get(deviceIDHeader))
			if deviceID == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "X-Device-Id header required for anonymous requests"))
				return
			}

			id := identity.Anonymous(deviceID)
			ctx = WithIdentity(ctx, id)
			if logg != nil {
				ctx = logg.WithDeviceID(ctx, deviceID)
				ctx = logg.WithIdentity(ctx, id.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
