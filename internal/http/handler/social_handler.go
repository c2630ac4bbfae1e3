package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"vue-dashboard-api/internal/config"
	"vue-dashboard-api/internal/http/response"
	"vue-dashboard-api/internal/observability"
	"vue-dashboard-api/internal/security"
	"vue-dashboard-api/internal/service"
)

const oauthStateCookie = "oauth_state"

// SocialHandler drives the provider redirect dance. Success ends in a
// browser session cookie and a redirect back to the SPA; every failure ends
// in a generic redirect that names only the provider.
type SocialHandler struct {
	oauthSvc *service.OAuthService
	sessions *security.SessionManager
	cfg      *config.Config
}

func NewSocialHandler(oauthSvc *service.OAuthService, sessions *security.SessionManager, cfg *config.Config) *SocialHandler {
	return &SocialHandler{oauthSvc: oauthSvc, sessions: sessions, cfg: cfg}
}

// Redirect sends the browser to the provider's consent page with a signed
// state parameter mirrored in a short-lived cookie.
func (h *SocialHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if _, ok := h.oauthSvc.Provider(provider); !ok {
		response.Error(w, r, http.StatusNotFound, "unknown login provider", nil)
		return
	}

	state, err := security.NewRandomString(24)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "failed to start login", nil)
		return
	}
	signed := security.SignState(state, h.cfg.StateSigningSecret)
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    signed,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	loginURL, err := h.oauthSvc.LoginURL(provider, state)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "failed to start login", nil)
		return
	}
	http.Redirect(w, r, loginURL, http.StatusFound)
}

// Callback validates state, completes the provider exchange, and establishes
// the browser session.
func (h *SocialHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	signed := security.GetCookie(r, oauthStateCookie)
	h.clearStateCookie(w)

	state, ok := security.VerifySignedState(signed, h.cfg.StateSigningSecret)
	if !ok || state == "" || state != r.URL.Query().Get("state") {
		observability.RecordSocialCallback(r.Context(), provider, "state_mismatch")
		h.redirectWithError(w, r, provider)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		observability.RecordSocialCallback(r.Context(), provider, "missing_code")
		h.redirectWithError(w, r, provider)
		return
	}

	user, cbErr := h.oauthSvc.Callback(r.Context(), provider, code)
	if cbErr != nil {
		observability.RecordSocialCallback(r.Context(), provider, string(cbErr.Kind))
		observability.Audit(r, "auth.social_login_failed", "provider", provider, "kind", string(cbErr.Kind), "error", cbErr.Error())
		h.redirectWithError(w, r, provider)
		return
	}

	token, err := h.sessions.Issue(user.ID)
	if err != nil {
		observability.RecordSocialCallback(r.Context(), provider, "session_issue_failed")
		h.redirectWithError(w, r, provider)
		return
	}
	h.sessions.SetSessionCookie(w, token)

	observability.RecordSocialCallback(r.Context(), provider, "success")
	observability.Audit(r, "auth.social_login", "provider", provider, "user_id", user.ID)
	http.Redirect(w, r, h.cfg.FrontendBaseURL+"/dashboard", http.StatusFound)
}

// redirectWithError never exposes the underlying failure to the browser.
func (h *SocialHandler) redirectWithError(w http.ResponseWriter, r *http.Request, provider string) {
	msg := url.QueryEscape(fmt.Sprintf("Something went wrong with %s authentication.", provider))
	http.Redirect(w, r, h.cfg.FrontendBaseURL+"/login?error="+msg, http.StatusFound)
}

func (h *SocialHandler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
