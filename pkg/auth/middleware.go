package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/bhims/bhims-backend/pkg/errors"
	"github.com/bhims/bhims-backend/pkg/httputil"
)

// Authenticate verifies the Bearer token and stores the staff identity in the
// request context.
func Authenticate(manager *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.Error(w, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				httputil.Error(w, errors.Unauthorized("invalid authorization header"))
				return
			}

			claims, err := manager.ValidateAccessToken(parts[1])
			if err != nil {
				httputil.Error(w, err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, httputil.UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, httputil.UserNameKey, claims.Name)
			ctx = context.WithValue(ctx, httputil.UserRoleKey, claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose authenticated role is not administrator.
// Reports expose facility-wide stock data, so staff accounts are not enough.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httputil.GetUserRole(r.Context()) != RoleAdministrator {
			httputil.Error(w, errors.Forbidden("administrator role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
