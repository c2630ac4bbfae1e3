package middleware

import (
	"context"
	"net/http"
	"strings"

	"vue-dashboard-api/internal/domain"
	"vue-dashboard-api/internal/http/response"
	"vue-dashboard-api/internal/observability"
	"vue-dashboard-api/internal/security"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

// TokenAuthenticator resolves a bearer token to its owner.
type TokenAuthenticator interface {
	Authenticate(plaintext string) (*domain.User, error)
}

// SessionParser resolves the social-login session cookie to a user id.
type SessionParser interface {
	Parse(raw string) (uint, error)
}

// UserLoader fetches the user row for a session subject.
type UserLoader interface {
	Get(id uint) (*domain.User, error)
}

// AuthMiddleware accepts either a bearer personal access token or the
// social-login session cookie, and puts the resolved user on the context.
func AuthMiddleware(tokens TokenAuthenticator, sessions SessionParser, users UserLoader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				raw := strings.TrimSpace(auth[7:])
				user, err := tokens.Authenticate(raw)
				if err != nil {
					observability.RecordTokenValidation(r.Context(), "invalid")
					response.Error(w, r, http.StatusUnauthorized, "Unauthenticated.", nil)
					return
				}
				observability.RecordTokenValidation(r.Context(), "valid")
				next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
				return
			}

			if raw := security.GetCookie(r, security.SessionCookieName); raw != "" && sessions != nil {
				userID, err := sessions.Parse(raw)
				if err == nil {
					if user, err := users.Get(userID); err == nil {
						next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
						return
					}
				}
				response.Error(w, r, http.StatusUnauthorized, "Unauthenticated.", nil)
				return
			}

			response.Error(w, r, http.StatusUnauthorized, "Unauthenticated.", nil)
		})
	}
}

func withUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(UserContextKey).(*domain.User)
	return u, ok
}
