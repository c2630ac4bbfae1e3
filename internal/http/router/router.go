package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"vue-dashboard-api/internal/health"
	"vue-dashboard-api/internal/http/handler"
	"vue-dashboard-api/internal/http/middleware"
	"vue-dashboard-api/internal/http/response"
)

type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	RoleHandler      *handler.RoleHandler
	DashboardHandler *handler.DashboardHandler
	SocialHandler    *handler.SocialHandler

	Tokens    middleware.TokenAuthenticator
	Sessions  middleware.SessionParser
	Users     middleware.UserLoader
	Abilities middleware.AbilityResolver

	CORSOrigins        []string
	AuthRateLimitRPM   int
	APIRateLimitRPM    int
	GlobalRateLimiter  func(http.Handler) http.Handler
	AuthRateLimiter    func(http.Handler) http.Handler
	SocialLoginEnabled bool
	Readiness          *health.ProbeRunner
	EnableOTelHTTP     bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute, "api").Middleware())
	}

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute, "auth").Middleware()
	}

	// MaxBytesReader caps cannot be widened once applied, so the default body
	// limit is attached per subtree and the avatar upload gets its own cap.
	bodyCap := middleware.BodyLimit(1 << 20)

	authn := middleware.AuthMiddleware(dep.Tokens, dep.Sessions, dep.Users)
	can := func(action, subject string) func(http.Handler) http.Handler {
		return middleware.RequireAbility(dep.Abilities, action, subject)
	}

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.JSON(w, r, http.StatusServiceUnavailable, map[string]any{"status": "unready", "checks": results})
	})

	if dep.SocialLoginEnabled {
		r.Route("/auth/{provider}", func(r chi.Router) {
			r.With(authLimiter).Get("/", dep.SocialHandler.Redirect)
			r.With(authLimiter).Get("/callback", dep.SocialHandler.Callback)
		})
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter, bodyCap).Post("/login", dep.AuthHandler.Login)
			r.With(authLimiter, bodyCap).Post("/register", dep.AuthHandler.Register)
			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.Get("/user", dep.AuthHandler.Me)
				r.Get("/logout", dep.AuthHandler.Logout)
				r.With(middleware.BodyLimit(6 << 20)).Post("/avatar", dep.AuthHandler.UploadAvatar)
			})
		})

		// Demo data for the landing dashboard, intentionally public.
		r.Get("/dashboard/stats", dep.DashboardHandler.Stats)
		r.Get("/dashboard/analytics", dep.DashboardHandler.Analytics)

		r.Route("/users", func(r chi.Router) {
			r.Use(authn, bodyCap)
			r.With(can("read", "user-management")).Get("/", dep.UserHandler.List)
			r.With(can("read", "user-management")).Get("/{id}", dep.UserHandler.Get)
			r.With(can("create", "user")).Post("/", dep.UserHandler.Create)
			r.With(can("update", "user")).Put("/{id}", dep.UserHandler.Update)
			r.With(can("manage", "all")).Delete("/{id}", dep.UserHandler.Delete)
		})

		r.Route("/roles", func(r chi.Router) {
			r.Use(authn, bodyCap)
			r.Use(can("manage", "all"))
			r.Get("/", dep.RoleHandler.List)
			r.Get("/{id}", dep.RoleHandler.Get)
			r.Post("/", dep.RoleHandler.Create)
			r.Put("/{id}", dep.RoleHandler.Update)
			r.Delete("/{id}", dep.RoleHandler.Delete)
		})

		r.With(authn, can("manage", "all")).Get("/permissions", dep.RoleHandler.Permissions)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
