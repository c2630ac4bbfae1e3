package service

import "vue-dashboard-api/internal/domain"

// AbilityService maps a user's role to the {action, subject} tuples the SPA
// feeds into its authorization layer. The mapping is a fixed priority chain
// over role names; only the first matching branch applies. It is a UI hint,
// not an enforcement mechanism on its own (see middleware.RequireAbility for
// the server-side check).
type AbilityService struct{}

func NewAbilityService() *AbilityService { return &AbilityService{} }

func (s *AbilityService) Resolve(user *domain.User) []domain.Ability {
	abilities := []domain.Ability{{Action: "read", Subject: "dashboard"}}

	switch {
	case user.HasRole("admin"):
		abilities = append(abilities, domain.Ability{Action: "manage", Subject: "all"})
	case user.HasRole("manager"):
		abilities = append(abilities,
			domain.Ability{Action: "read", Subject: "user-management"},
			domain.Ability{Action: "create", Subject: "user"},
			domain.Ability{Action: "update", Subject: "user"},
		)
	default:
		abilities = append(abilities,
			domain.Ability{Action: "read", Subject: "profile"},
			domain.Ability{Action: "update", Subject: "profile"},
		)
	}
	return abilities
}

// Can reports whether the resolved ability set grants action on subject.
// "manage" covers every action and "all" covers every subject, mirroring the
// CASL semantics the frontend applies to the same tuples.
func Can(abilities []domain.Ability, action, subject string) bool {
	for _, a := range abilities {
		actionOK := a.Action == action || a.Action == "manage"
		subjectOK := a.Subject == subject || a.Subject == "all"
		if actionOK && subjectOK {
			return true
		}
	}
	return false
}
