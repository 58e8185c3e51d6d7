package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Result label values for grant metrics
const (
	ResultSuccess = "success"
)

// Metrics holds all metric instruments for the token proxy
type Metrics struct {
	GrantsTotal       metric.Int64Counter
	GrantDuration     metric.Float64Histogram
	TokensRevoked     metric.Int64Counter
	Introspections    metric.Int64Counter
	RateLimitExceeded metric.Int64Counter
	PKCEFailed        metric.Int64Counter
	CodeReuseDetected metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error
	m.GrantsTotal, err = meter.Int64Counter(
		"proxy.token.grants.total",
		metric.WithDescription("Token endpoint grants by grant type and result"),
		metric.WithUnit("{grant}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create grants.total counter: %w", err)
	}

	m.GrantDuration, err = meter.Float64Histogram(
		"proxy.token.grant.duration",
		metric.WithDescription("Time spent processing a grant"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create grant.duration histogram: %w", err)
	}

	m.TokensRevoked, err = meter.Int64Counter(
		"proxy.token.revocations.total",
		metric.WithDescription("Proxy tokens deleted through the revocation endpoint"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create revocations.total counter: %w", err)
	}

	m.Introspections, err = meter.Int64Counter(
		"proxy.token.introspections.total",
		metric.WithDescription("Introspection requests by active flag"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create introspections.total counter: %w", err)
	}

	m.RateLimitExceeded, err = meter.Int64Counter(
		"proxy.ratelimit.exceeded.total",
		metric.WithDescription("Requests rejected by the rate limiter"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ratelimit.exceeded.total counter: %w", err)
	}

	m.PKCEFailed, err = meter.Int64Counter(
		"proxy.pkce.failed.total",
		metric.WithDescription("Authorization code exchanges rejected by PKCE verification"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pkce.failed.total counter: %w", err)
	}

	m.CodeReuseDetected, err = meter.Int64Counter(
		"proxy.code.reuse.total",
		metric.WithDescription("Authorization codes consumed concurrently by another request"),
		metric.WithUnit("{code}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create code.reuse.total counter: %w", err)
	}

	return m, nil
}

// RecordGrant records the outcome and duration of one token endpoint grant.
// result is ResultSuccess or the OAuth error code.
func (m *Metrics) RecordGrant(ctx context.Context, grantType, result string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("grant_type", grantType),
		attribute.String("result", result),
	)
	m.GrantsTotal.Add(ctx, 1, attrs)
	m.GrantDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordTokenRevocation records a revoked proxy token
func (m *Metrics) RecordTokenRevocation(ctx context.Context) {
	m.TokensRevoked.Add(ctx, 1)
}

// RecordIntrospection records an introspection answer
func (m *Metrics) RecordIntrospection(ctx context.Context, active bool) {
	m.Introspections.Add(ctx, 1, metric.WithAttributes(attribute.Bool("active", active)))
}

// RecordRateLimitExceeded records a request rejected by the limiter
func (m *Metrics) RecordRateLimitExceeded(ctx context.Context, endpoint string) {
	m.RateLimitExceeded.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}

// RecordPKCEValidationFailed records a failed or missing verifier
func (m *Metrics) RecordPKCEValidationFailed(ctx context.Context, method string) {
	m.PKCEFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}

// RecordCodeReuseDetected records a code that lost the race to be marked used
func (m *Metrics) RecordCodeReuseDetected(ctx context.Context) {
	m.CodeReuseDetected.Add(ctx, 1)
}
