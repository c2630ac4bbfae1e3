package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vue-dashboard-api/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"
	"go.opentelemetry.io/otel/sdk/resource"
)

type AppMetrics struct {
	authLoginCounter         metric.Int64Counter
	authRegisterCounter      metric.Int64Counter
	authLogoutCounter        metric.Int64Counter
	tokenEventCounter        metric.Int64Counter
	tokenValidationCounter   metric.Int64Counter
	adminMutationCounter     metric.Int64Counter
	socialCallbackCounter    metric.Int64Counter
	authReqDuration          metric.Float64Histogram
	socialReqDuration        metric.Float64Histogram
	rateLimitDecisionCounter metric.Int64Counter
	avatarStorageCounter     metric.Int64Counter
	healthCheckResultCounter metric.Int64Counter
	healthCheckDuration      metric.Float64Histogram
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "auth.request.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
				},
			},
		)),
	)
	otel.SetMeterProvider(mp)

	meter := mp.Meter("vue-dashboard-api")
	loginCounter, err := meter.Int64Counter("auth.login.attempts")
	if err != nil {
		return nil, err
	}
	registerCounter, err := meter.Int64Counter("auth.register.attempts")
	if err != nil {
		return nil, err
	}
	logoutCounter, err := meter.Int64Counter("auth.logout.attempts")
	if err != nil {
		return nil, err
	}
	tokenEvents, err := meter.Int64Counter("auth.token.events")
	if err != nil {
		return nil, err
	}
	tokenValidation, err := meter.Int64Counter("auth.token.validation.events")
	if err != nil {
		return nil, err
	}
	adminMutations, err := meter.Int64Counter("admin.mutations")
	if err != nil {
		return nil, err
	}
	socialCallbacks, err := meter.Int64Counter("auth.social.callback.events")
	if err != nil {
		return nil, err
	}
	authReqDuration, err := meter.Float64Histogram("auth.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of auth endpoint requests in seconds"))
	if err != nil {
		return nil, err
	}
	socialReqDuration, err := meter.Float64Histogram("auth.social.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of upstream identity provider calls in seconds"))
	if err != nil {
		return nil, err
	}
	rateLimitDecisions, err := meter.Int64Counter("http.rate_limit.decisions")
	if err != nil {
		return nil, err
	}
	avatarEvents, err := meter.Int64Counter("storage.avatar.events")
	if err != nil {
		return nil, err
	}
	healthResults, err := meter.Int64Counter("health.check.results")
	if err != nil {
		return nil, err
	}
	healthDuration, err := meter.Float64Histogram("health.check.duration", metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	metricsMu.Lock()
	appMetrics = &AppMetrics{
		authLoginCounter:         loginCounter,
		authRegisterCounter:      registerCounter,
		authLogoutCounter:        logoutCounter,
		tokenEventCounter:        tokenEvents,
		tokenValidationCounter:   tokenValidation,
		adminMutationCounter:     adminMutations,
		socialCallbackCounter:    socialCallbacks,
		authReqDuration:          authReqDuration,
		socialReqDuration:        socialReqDuration,
		rateLimitDecisionCounter: rateLimitDecisions,
		avatarStorageCounter:     avatarEvents,
		healthCheckResultCounter: healthResults,
		healthCheckDuration:      healthDuration,
	}
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint, "interval", cfg.OTELMetricsExportInterval.String())
	return mp, nil
}

func current() *AppMetrics {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	return m
}

func RecordAuthLogin(ctx context.Context, method, status string) {
	m := current()
	if m == nil {
		return
	}
	m.authLoginCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("status", status),
	))
}

func RecordAuthRegister(ctx context.Context, status string) {
	m := current()
	if m == nil {
		return
	}
	m.authRegisterCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordAuthLogout(ctx context.Context, status string) {
	m := current()
	if m == nil {
		return
	}
	m.authLogoutCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordTokenEvent(ctx context.Context, action string) {
	m := current()
	if m == nil {
		return
	}
	m.tokenEventCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}

func RecordTokenValidation(ctx context.Context, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.tokenValidationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordAdminMutation(ctx context.Context, entity, action, status string) {
	m := current()
	if m == nil {
		return
	}
	m.adminMutationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("action", action),
		attribute.String("status", status),
	))
}

func RecordSocialCallback(ctx context.Context, provider, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.socialCallbackCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	))
}

func RecordAuthRequestDuration(ctx context.Context, endpoint, status string, duration time.Duration) {
	m := current()
	if m == nil {
		return
	}
	m.authReqDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("status", status),
	))
}

func RecordSocialRequestDuration(ctx context.Context, provider, step, status string, duration time.Duration) {
	m := current()
	if m == nil {
		return
	}
	m.socialReqDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("step", step),
		attribute.String("status", status),
	))
}

func RecordRateLimitDecision(ctx context.Context, scope, outcome, mode string) {
	m := current()
	if m == nil {
		return
	}
	m.rateLimitDecisionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("outcome", outcome),
		attribute.String("mode", mode),
	))
}

func RecordAvatarStorageEvent(ctx context.Context, action, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.avatarStorageCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("outcome", outcome),
	))
}

func RecordHealthCheck(ctx context.Context, check, outcome string, duration time.Duration) {
	m := current()
	if m == nil {
		return
	}
	m.healthCheckResultCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check", check),
		attribute.String("outcome", outcome),
	))
	m.healthCheckDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("check", check),
	))
}
