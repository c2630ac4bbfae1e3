package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"vue-dashboard-api/internal/app"
	"vue-dashboard-api/internal/config"
	"vue-dashboard-api/internal/database"
	"vue-dashboard-api/internal/health"
	"vue-dashboard-api/internal/http/handler"
	"vue-dashboard-api/internal/http/middleware"
	"vue-dashboard-api/internal/http/router"
	"vue-dashboard-api/internal/observability"
	"vue-dashboard-api/internal/repository"
	"vue-dashboard-api/internal/security"
	"vue-dashboard-api/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewRoleRepository,
	repository.NewPermissionRepository,
	repository.NewTokenRepository,
)

var SecuritySet = wire.NewSet(
	provideSessionManager,
)

var ServiceSet = wire.NewSet(
	service.NewAbilityService,
	provideTokenService,
	service.NewAuthService,
	service.NewUserService,
	provideRoleService,
	provideOAuthService,
	service.NewDashboardService,
	provideAvatarStorage,
)

var HTTPSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewUserHandler,
	handler.NewRoleHandler,
	handler.NewDashboardHandler,
	handler.NewSocialHandler,
	provideGlobalRateLimiter,
	provideAuthRateLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

type MigrationRunner struct {
	cfg *config.Config
	db  *gorm.DB
}

func NewMigrationRunner(cfg *config.Config, db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{cfg: cfg, db: db}
}

func (m *MigrationRunner) Run() error {
	if err := database.Migrate(m.db); err != nil {
		return err
	}
	if err := database.Seed(m.db, m.cfg.BootstrapAdminEmail); err != nil {
		return err
	}
	fmt.Println("migration complete")
	return nil
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	if err := database.Seed(db, cfg.BootstrapAdminEmail); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config) redis.UniversalClient {
	if !cfg.RateLimitRedisEnabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func provideSessionManager(cfg *config.Config) *security.SessionManager {
	return security.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL, cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite)
}

func provideTokenService(cfg *config.Config, tokenRepo repository.TokenRepository, userRepo repository.UserRepository) *service.TokenService {
	return service.NewTokenService(tokenRepo, userRepo, cfg.TokenPepper)
}

func provideRoleService(cfg *config.Config, roleRepo repository.RoleRepository, permRepo repository.PermissionRepository) *service.RoleService {
	return service.NewRoleService(roleRepo, permRepo, cfg.RBACProtectedRoles)
}

func provideOAuthService(cfg *config.Config, userRepo repository.UserRepository, roleRepo repository.RoleRepository) *service.OAuthService {
	providers := make([]service.SocialProvider, 0, 2)
	if cfg.GoogleClientID != "" {
		providers = append(providers, service.NewGoogleProvider(cfg))
	}
	if cfg.GitHubClientID != "" {
		providers = append(providers, service.NewGitHubProvider(cfg))
	}
	return service.NewOAuthService(userRepo, roleRepo, providers...)
}

func provideAvatarStorage(cfg *config.Config) (service.AvatarStorage, error) {
	return service.NewAvatarStorage(cfg)
}

func provideGlobalRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) GlobalRateLimiterFunc {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":api")
		return GlobalRateLimiterFunc(middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.APIRateLimitPerMin,
			time.Minute,
			middleware.FailOpen,
			"api",
		).Middleware())
	}
	return GlobalRateLimiterFunc(middleware.NewRateLimiter(cfg.APIRateLimitPerMin, time.Minute, "api").Middleware())
}

func provideAuthRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) AuthRateLimiterFunc {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":auth")
		return AuthRateLimiterFunc(middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.AuthRateLimitPerMin,
			time.Minute,
			middleware.FailClosed,
			"auth",
		).Middleware())
	}
	return AuthRateLimiterFunc(middleware.NewRateLimiter(cfg.AuthRateLimitPerMin, time.Minute, "auth").Middleware())
}

// Distinct types so wire can tell the two limiter middlewares apart.
type GlobalRateLimiterFunc func(http.Handler) http.Handler
type AuthRateLimiterFunc func(http.Handler) http.Handler

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	roleHandler *handler.RoleHandler,
	dashboardHandler *handler.DashboardHandler,
	socialHandler *handler.SocialHandler,
	tokenSvc *service.TokenService,
	sessions *security.SessionManager,
	userSvc *service.UserService,
	abilitySvc *service.AbilityService,
	globalRateLimiter GlobalRateLimiterFunc,
	authRateLimiter AuthRateLimiterFunc,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:        authHandler,
		UserHandler:        userHandler,
		RoleHandler:        roleHandler,
		DashboardHandler:   dashboardHandler,
		SocialHandler:      socialHandler,
		Tokens:             tokenSvc,
		Sessions:           sessions,
		Users:              userSvc,
		Abilities:          abilitySvc,
		CORSOrigins:        cfg.CORSAllowedOrigins,
		AuthRateLimitRPM:   cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:    cfg.APIRateLimitPerMin,
		GlobalRateLimiter:  globalRateLimiter,
		AuthRateLimiter:    authRateLimiter,
		SocialLoginEnabled: cfg.SocialLoginEnabled,
		Readiness:          readiness,
		EnableOTelHTTP:     cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *health.ProbeRunner {
	checkers := make([]health.Checker, 0, 2)
	if c := health.NewDBChecker(db); c != nil {
		checkers = append(checkers, c)
	}
	if cfg.RateLimitRedisEnabled {
		if c := health.NewRedisChecker(redisClient); c != nil {
			checkers = append(checkers, c)
		}
	}
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod, checkers...)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
) *app.App {
	return app.New(cfg, logger, server, runtime, db, redisClient, readiness)
}
