package middleware

import (
	"net/http"

	"vue-dashboard-api/internal/domain"
	"vue-dashboard-api/internal/http/response"
	"vue-dashboard-api/internal/service"
)

// AbilityResolver computes the ability tuples for a user.
type AbilityResolver interface {
	Resolve(user *domain.User) []domain.Ability
}

// RequireAbility gates a route on the caller holding an ability covering the
// given action/subject pair. "manage"/"all" act as wildcards, matching the
// frontend's CASL semantics.
func RequireAbility(abilities AbilityResolver, action, subject string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "Unauthenticated.", nil)
				return
			}
			if !service.Can(abilities.Resolve(user), action, subject) {
				response.Error(w, r, http.StatusForbidden, "This action is unauthorized.", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
