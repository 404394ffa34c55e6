package telemetry

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all custom metrics for the service
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal metric.Int64Counter
	HTTPDurationMs    metric.Float64Histogram

	// Business metrics
	SessionTotal          metric.Int64Counter
	SubmissionsTotal      metric.Int64Counter
	SagaStepDurationMs    metric.Float64Histogram
	LesionFailuresTotal   metric.Int64Counter
	ReadinessBlockedTotal metric.Int64Counter

	// Auth metrics
	AuthFailuresTotal       metric.Int64Counter
	PermissionCheckDuration metric.Float64Histogram
}

// InitMetrics initializes all custom metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/teledermato/intake-service")

	httpRequestsTotal, err := meter.Int64Counter(
		"http_server_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	httpDurationMs, err := meter.Float64Histogram(
		"http_server_duration_milliseconds",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	sessionTotal, err := meter.Int64Counter(
		"intake_session_total",
		metric.WithDescription("Total number of intake session operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	submissionsTotal, err := meter.Int64Counter(
		"submissions_total",
		metric.WithDescription("Total number of submission sagas by outcome"),
		metric.WithUnit("{submission}"),
	)
	if err != nil {
		return nil, err
	}

	sagaStepDurationMs, err := meter.Float64Histogram(
		"saga_step_duration_milliseconds",
		metric.WithDescription("Submission saga step duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	lesionFailuresTotal, err := meter.Int64Counter(
		"lesion_failures_total",
		metric.WithDescription("Total number of failed lesion registrations"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	readinessBlockedTotal, err := meter.Int64Counter(
		"readiness_blocked_total",
		metric.WithDescription("Total number of submissions blocked by readiness domain"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return nil, err
	}

	authFailuresTotal, err := meter.Int64Counter(
		"auth_failures_total",
		metric.WithDescription("Total number of authentication failures"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	permissionCheckDuration, err := meter.Float64Histogram(
		"permission_check_duration_ms",
		metric.WithDescription("Permission check duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	log.Println("✓ Custom metrics initialized")

	return &Metrics{
		HTTPRequestsTotal:       httpRequestsTotal,
		HTTPDurationMs:          httpDurationMs,
		SessionTotal:            sessionTotal,
		SubmissionsTotal:        submissionsTotal,
		SagaStepDurationMs:      sagaStepDurationMs,
		LesionFailuresTotal:     lesionFailuresTotal,
		ReadinessBlockedTotal:   readinessBlockedTotal,
		AuthFailuresTotal:       authFailuresTotal,
		PermissionCheckDuration: permissionCheckDuration,
	}, nil
}

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, statusCode int, durationMs float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http_method", method),
		attribute.String("http_route", route),
		attribute.Int("http_status_code", statusCode),
	}

	m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.HTTPDurationMs.Record(ctx, durationMs, metric.WithAttributes(attrs...))
}

// RecordSessionOperation records an intake session operation metric
func (m *Metrics) RecordSessionOperation(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.SessionTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordSubmission records a completed or failed submission saga
func (m *Metrics) RecordSubmission(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// RecordSagaStep records the duration of one submission saga step
func (m *Metrics) RecordSagaStep(ctx context.Context, step string, durationMs float64, ok bool) {
	if m == nil {
		return
	}
	m.SagaStepDurationMs.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("step", step),
		attribute.Bool("ok", ok),
	))
}

// RecordLesionFailure records one failed lesion registration
func (m *Metrics) RecordLesionFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.LesionFailuresTotal.Add(ctx, 1)
}

// RecordReadinessBlocked records a submission attempt blocked before any I/O
func (m *Metrics) RecordReadinessBlocked(ctx context.Context, domain string) {
	if m == nil {
		return
	}
	m.ReadinessBlockedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("domain", domain),
	))
}

// RecordAuthFailure records an authentication failure metric
func (m *Metrics) RecordAuthFailure(ctx context.Context, reason string) {
	m.AuthFailuresTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}

// RecordPermissionCheck records a permission check duration metric
func (m *Metrics) RecordPermissionCheck(ctx context.Context, permission string, durationMs float64, allowed bool) {
	m.PermissionCheckDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("permission", permission),
		attribute.Bool("allowed", allowed),
	))
}
