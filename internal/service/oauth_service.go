package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vue-dashboard-api/internal/config"
	"vue-dashboard-api/internal/domain"
	"vue-dashboard-api/internal/observability"
	"vue-dashboard-api/internal/repository"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// SocialProfile is the provider-agnostic identity handed back by a provider.
type SocialProfile struct {
	ProviderUserID string
	Email          string
	Name           string
	AvatarURL      string
}

type SocialProvider interface {
	Name() string
	AuthCodeURL(state string) string
	FetchProfile(ctx context.Context, code string) (*SocialProfile, error)
}

// CallbackError distinguishes upstream provider failures from our own, so the
// handler can log the internal cause while the browser only ever sees a
// generic message naming the provider.
type CallbackErrorKind string

const (
	CallbackErrorProvider CallbackErrorKind = "provider"
	CallbackErrorInternal CallbackErrorKind = "internal"
)

type CallbackError struct {
	Kind     CallbackErrorKind
	Provider string
	Err      error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("%s callback failed (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }

type GoogleProvider struct {
	cfg *oauth2.Config
}

func NewGoogleProvider(cfg *config.Config) *GoogleProvider {
	return &GoogleProvider{cfg: &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}}
}

func (p *GoogleProvider) Name() string { return "google" }

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

func (p *GoogleProvider) FetchProfile(ctx context.Context, code string) (*SocialProfile, error) {
	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	var body struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := fetchJSON(ctx, p.cfg.Client(ctx, token), "https://openidconnect.googleapis.com/v1/userinfo", &body); err != nil {
		return nil, err
	}
	if body.Sub == "" || body.Email == "" {
		return nil, fmt.Errorf("missing required userinfo fields")
	}
	return &SocialProfile{
		ProviderUserID: body.Sub,
		Email:          strings.ToLower(body.Email),
		Name:           body.Name,
		AvatarURL:      body.Picture,
	}, nil
}

type GitHubProvider struct {
	cfg *oauth2.Config
}

func NewGitHubProvider(cfg *config.Config) *GitHubProvider {
	return &GitHubProvider{cfg: &oauth2.Config{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		RedirectURL:  cfg.GitHubRedirectURL,
		Scopes:       []string{"read:user", "user:email"},
		Endpoint:     github.Endpoint,
	}}
}

func (p *GitHubProvider) Name() string { return "github" }

func (p *GitHubProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state)
}

func (p *GitHubProvider) FetchProfile(ctx context.Context, code string) (*SocialProfile, error) {
	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	client := p.cfg.Client(ctx, token)
	var user struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := fetchJSON(ctx, client, "https://api.github.com/user", &user); err != nil {
		return nil, err
	}
	email := strings.ToLower(user.Email)
	if email == "" {
		// The profile email is empty unless the user made it public; the
		// emails endpoint carries the primary verified address.
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := fetchJSON(ctx, client, "https://api.github.com/user/emails", &emails); err != nil {
			return nil, err
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				email = strings.ToLower(e.Email)
				break
			}
		}
	}
	if user.ID == 0 || email == "" {
		return nil, fmt.Errorf("missing required profile fields")
	}
	name := user.Name
	if name == "" {
		name = user.Login
	}
	return &SocialProfile{
		ProviderUserID: fmt.Sprintf("%d", user.ID),
		Email:          email,
		Name:           name,
		AvatarURL:      user.AvatarURL,
	}, nil
}

func fetchJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// OAuthService bridges third-party identity logins onto local user rows,
// keyed by email.
type OAuthService struct {
	providers map[string]SocialProvider
	userRepo  repository.UserRepository
	roleRepo  repository.RoleRepository
}

func NewOAuthService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, providers ...SocialProvider) *OAuthService {
	byName := make(map[string]SocialProvider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &OAuthService{providers: byName, userRepo: userRepo, roleRepo: roleRepo}
}

func (s *OAuthService) Provider(name string) (SocialProvider, bool) {
	p, ok := s.providers[name]
	return p, ok
}

func (s *OAuthService) LoginURL(provider, state string) (string, error) {
	p, ok := s.providers[provider]
	if !ok {
		return "", fmt.Errorf("unknown provider %q", provider)
	}
	return p.AuthCodeURL(state), nil
}

// Callback completes the provider handshake and upserts the user by email:
// an existing row gets its provider linkage and avatar refreshed, a new row
// is created verified with the default "user" role.
func (s *OAuthService) Callback(ctx context.Context, provider, code string) (*domain.User, *CallbackError) {
	p, ok := s.providers[provider]
	if !ok {
		return nil, &CallbackError{Kind: CallbackErrorProvider, Provider: provider, Err: fmt.Errorf("unknown provider")}
	}

	start := time.Now()
	profile, err := p.FetchProfile(ctx, code)
	observability.RecordSocialRequestDuration(ctx, provider, "profile", statusOf(err), time.Since(start))
	if err != nil {
		return nil, &CallbackError{Kind: CallbackErrorProvider, Provider: provider, Err: err}
	}

	user, err := s.userRepo.FindByEmail(profile.Email)
	switch {
	case err == nil:
		user.Provider = provider
		user.ProviderID = profile.ProviderUserID
		user.Avatar = profile.AvatarURL
		if err := s.userRepo.Update(user); err != nil {
			return nil, &CallbackError{Kind: CallbackErrorInternal, Provider: provider, Err: err}
		}
	case repository.IsNotFound(err):
		now := time.Now().UTC()
		user = &domain.User{
			Name:            profile.Name,
			Email:           profile.Email,
			Provider:        provider,
			ProviderID:      profile.ProviderUserID,
			Avatar:          profile.AvatarURL,
			EmailVerifiedAt: &now,
		}
		if err := s.userRepo.Create(user); err != nil {
			return nil, &CallbackError{Kind: CallbackErrorInternal, Provider: provider, Err: err}
		}
		if userRole, err := s.roleRepo.FindByName("user"); err == nil {
			_ = s.userRepo.AddRole(user.ID, userRole.ID)
		}
	default:
		return nil, &CallbackError{Kind: CallbackErrorInternal, Provider: provider, Err: err}
	}

	fresh, err := s.userRepo.FindByID(user.ID)
	if err != nil {
		return nil, &CallbackError{Kind: CallbackErrorInternal, Provider: provider, Err: err}
	}
	return fresh, nil
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
