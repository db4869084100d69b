package httpapi

import (
	"context"
	"net/http"
	"strings"

	authcore "github.com/matchday/authcore"
)

// Principal is the authenticated caller extracted from a valid access token.
type Principal struct {
	AccountID string
	Email     string
	Roles     []string
	TokenID   string
}

type principalContextKey struct{}

// PrincipalFromContext returns the authenticated caller, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(Principal)
	return principal, ok
}

// Guard rejects requests without a valid bearer access token and stores
// the resolved Principal on the request context. Validation is pure CPU;
// no storage is touched on the request path.
func Guard(coordinator *authcore.Coordinator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "Missing access token"})
				return
			}

			claims, err := coordinator.ValidateAccessToken(token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, envelope{Success: false, Message: "Invalid or expired token"})
				return
			}

			principal := Principal{
				AccountID: claims.Subject,
				Email:     claims.Email,
				Roles:     claims.Roles,
				TokenID:   claims.ID,
			}
			ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
