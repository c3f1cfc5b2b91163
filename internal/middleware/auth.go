package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/evn/versiongate/internal/pkg/response"
)

// RoleSuperadmin is the only role allowed to trigger refreshes.
const RoleSuperadmin = "superadmin"

// SuperadminOnly expects jwtauth.Verifier to have run and requires a valid
// token whose "role" claim is superadmin.
func SuperadminOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				response.RespondWithError(w, response.ErrUnauthenticated, "Invalid token")
				return
			}

			role, ok := claims["role"].(string)
			if !ok {
				response.RespondWithError(w, response.ErrUnauthorized, "Role not found")
				return
			}
			if role != RoleSuperadmin {
				response.RespondWithError(w, response.ErrUnauthorized, "Access denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
