package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/stockroute-backend/api/responses"
	pkgAuth "github.com/angelmondragon/stockroute-backend/pkg/auth"
	"github.com/angelmondragon/stockroute-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/stockroute-backend/pkg/errors"
	"github.com/angelmondragon/stockroute-backend/pkg/logger"
)

// Auth validates an optional bearer token and seeds the request context with the actor and
// tenant claims. With required set, requests without a token are rejected.
func Auth(cfg config.JWTConfig, required bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				if required {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			if claims.Role != "" {
				ctx = context.WithValue(ctx, ctxRole, claims.Role)
			}
			if claims.TenantID != nil {
				ctx = context.WithValue(ctx, ctxTokenTenantID, claims.TenantID.String())
			}

			if logg != nil {
				ctx = logg.WithActorID(ctx, claims.UserID.String())
				if claims.Role != "" {
					ctx = logg.WithField(ctx, "actor_role", claims.Role)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
