package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds all application metrics implementing the golden 4 signals:
// - Latency: How long remote calls take
// - Traffic: Submission/poll throughput
// - Errors: Rate of failures
// - Saturation: Jobs still being tracked
type Metrics struct {
	meter metric.Meter

	// HTTP metrics for the local API (Latency, Traffic, Errors)
	HTTPRequestDuration metric.Float64Histogram
	HTTPRequestsTotal   metric.Int64Counter
	HTTPErrorsTotal     metric.Int64Counter

	// Tracker metrics (Latency, Traffic, Errors, Saturation)
	SubmissionsTotal       metric.Int64Counter
	SubmissionErrorsTotal  metric.Int64Counter
	PollsTotal             metric.Int64Counter
	PollErrorsTotal        metric.Int64Counter
	PollDuration           metric.Float64Histogram
	ResultFetchesTotal     metric.Int64Counter
	ResultFetchErrorsTotal metric.Int64Counter
	JobsTracked            metric.Int64UpDownCounter
	JobDuration            metric.Float64Histogram

	// Notifier metrics (Latency, Traffic, Errors, Saturation)
	NotifierDuration  metric.Float64Histogram
	NotifierDelivered metric.Int64Counter
	NotifierFailed    metric.Int64Counter
	NotifierDropped   metric.Int64Counter
	NotifierQueueSize metric.Int64Gauge
}

// NewMetrics creates and registers all metrics with a Prometheus exporter.
func NewMetrics(ctx context.Context) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("guidetrack")
	m := &Metrics{meter: meter}

	// HTTP metrics
	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPErrorsTotal, err = meter.Int64Counter(
		"http_errors_total",
		metric.WithDescription("Total number of HTTP errors (4xx and 5xx)"),
	)
	if err != nil {
		return nil, nil, err
	}

	// Tracker metrics
	m.SubmissionsTotal, err = meter.Int64Counter(
		"submissions_total",
		metric.WithDescription("Total number of job submissions"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.SubmissionErrorsTotal, err = meter.Int64Counter(
		"submission_errors_total",
		metric.WithDescription("Total number of failed job submissions"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PollsTotal, err = meter.Int64Counter(
		"polls_total",
		metric.WithDescription("Total number of status polls"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PollErrorsTotal, err = meter.Int64Counter(
		"poll_errors_total",
		metric.WithDescription("Total number of failed status polls"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.PollDuration, err = meter.Float64Histogram(
		"poll_duration_seconds",
		metric.WithDescription("Status poll latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ResultFetchesTotal, err = meter.Int64Counter(
		"result_fetches_total",
		metric.WithDescription("Total number of result fetches"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ResultFetchErrorsTotal, err = meter.Int64Counter(
		"result_fetch_errors_total",
		metric.WithDescription("Total number of failed result fetches"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobsTracked, err = meter.Int64UpDownCounter(
		"jobs_tracked",
		metric.WithDescription("Number of non-terminal jobs being tracked (saturation)"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.JobDuration, err = meter.Float64Histogram(
		"job_duration_seconds",
		metric.WithDescription("Time from submission to a terminal phase in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 120, 300, 600, 900, 1800),
	)
	if err != nil {
		return nil, nil, err
	}

	// Notifier metrics
	m.NotifierDuration, err = meter.Float64Histogram(
		"notifier_duration_seconds",
		metric.WithDescription("Lifecycle event delivery latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, nil, err
	}

	m.NotifierDelivered, err = meter.Int64Counter(
		"notifier_delivered_total",
		metric.WithDescription("Total lifecycle events successfully delivered"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.NotifierFailed, err = meter.Int64Counter(
		"notifier_failed_total",
		metric.WithDescription("Total lifecycle events failed after retries"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.NotifierDropped, err = meter.Int64Counter(
		"notifier_dropped_total",
		metric.WithDescription("Total lifecycle events dropped (buffer full)"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.NotifierQueueSize, err = meter.Int64Gauge(
		"notifier_queue_size",
		metric.WithDescription("Current number of lifecycle events queued (saturation)"),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, promhttp.Handler(), nil
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, durationSeconds float64) {
	attrs := metric.WithAttributes(
		methodAttr(method),
		pathAttr(path),
		statusAttr(statusCode),
	)

	m.HTTPRequestDuration.Record(ctx, durationSeconds, attrs)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)

	if statusCode >= 400 {
		m.HTTPErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordSubmission records a submission attempt.
func (m *Metrics) RecordSubmission(ctx context.Context, success bool) {
	m.SubmissionsTotal.Add(ctx, 1, metric.WithAttributes(successAttr(success)))
	if !success {
		m.SubmissionErrorsTotal.Add(ctx, 1)
	} else {
		m.JobsTracked.Add(ctx, 1)
	}
}

// RecordPoll records one status poll with its duration.
func (m *Metrics) RecordPoll(ctx context.Context, success bool, durationSeconds float64) {
	attrs := metric.WithAttributes(successAttr(success))
	m.PollsTotal.Add(ctx, 1, attrs)
	m.PollDuration.Record(ctx, durationSeconds, attrs)
	if !success {
		m.PollErrorsTotal.Add(ctx, 1)
	}
}

// RecordResultFetch records one result fetch attempt.
func (m *Metrics) RecordResultFetch(ctx context.Context, success bool) {
	m.ResultFetchesTotal.Add(ctx, 1, metric.WithAttributes(successAttr(success)))
	if !success {
		m.ResultFetchErrorsTotal.Add(ctx, 1)
	}
}

// RecordJobTerminal records a job reaching Completed or Failed.
func (m *Metrics) RecordJobTerminal(ctx context.Context, success bool, durationSeconds float64) {
	m.JobDuration.Record(ctx, durationSeconds, metric.WithAttributes(successAttr(success)))
	m.JobsTracked.Add(ctx, -1)
}

// RecordNotifierDelivered records a successful event delivery with its duration.
func (m *Metrics) RecordNotifierDelivered(ctx context.Context, durationSeconds float64) {
	m.NotifierDelivered.Add(ctx, 1)
	m.NotifierDuration.Record(ctx, durationSeconds)
}

// RecordNotifierFailed records a failed event delivery.
func (m *Metrics) RecordNotifierFailed(ctx context.Context) {
	m.NotifierFailed.Add(ctx, 1)
}

// RecordNotifierDropped records a dropped event.
func (m *Metrics) RecordNotifierDropped(ctx context.Context) {
	m.NotifierDropped.Add(ctx, 1)
}

// RecordNotifierQueueSize records the current queue size.
func (m *Metrics) RecordNotifierQueueSize(ctx context.Context, size int64) {
	m.NotifierQueueSize.Record(ctx, size)
}
