package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"

	"github.com/ceyewan/idstore/clog"
	"github.com/ceyewan/idstore/xerrors"
)

// ============================================================================
// 工厂函数
// ============================================================================

// Option Meter 选项
type Option func(*options)

type options struct {
	logger clog.Logger
}

// WithLogger 注入日志
func WithLogger(l clog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.WithNamespace("metrics")
		}
	}
}

// New 创建 Meter。每个 Meter 使用独立的 Prometheus Registry，
// 不修改 otel 的全局 MeterProvider。
func New(cfg *Config, opts ...Option) (Meter, error) {
	if cfg == nil || !cfg.Enabled {
		return Discard(), nil
	}
	c := *cfg
	c.setDefaults()

	o := &options{logger: clog.Discard()}
	for _, opt := range opts {
		opt(o)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(c.ServiceName),
			semconv.ServiceVersionKey.String(c.Version),
		),
	)
	if err != nil {
		return nil, xerrors.Wrap(err, "create metrics resource")
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, xerrors.Wrap(err, "create prometheus exporter")
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	o.logger.Info("metrics enabled", clog.String("service", c.ServiceName))

	return &meter{
		meter:    provider.Meter("github.com/ceyewan/idstore"),
		provider: provider,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, nil
}

// ============================================================================
// OTel 实现
// ============================================================================

type meter struct {
	meter    metric.Meter
	provider *sdkmetric.MeterProvider
	handler  http.Handler
}

func applyMetricOptions(opts []MetricOption) *metricOptions {
	o := &metricOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (m *meter) Counter(name, desc string, opts ...MetricOption) (Counter, error) {
	o := applyMetricOptions(opts)
	copts := []metric.Float64CounterOption{metric.WithDescription(desc)}
	if o.unit != "" {
		copts = append(copts, metric.WithUnit(o.unit))
	}
	c, err := m.meter.Float64Counter(name, copts...)
	if err != nil {
		return nil, err
	}
	return &counter{c: c}, nil
}

func (m *meter) Gauge(name, desc string, opts ...MetricOption) (Gauge, error) {
	o := applyMetricOptions(opts)
	gopts := []metric.Float64GaugeOption{metric.WithDescription(desc)}
	if o.unit != "" {
		gopts = append(gopts, metric.WithUnit(o.unit))
	}
	g, err := m.meter.Float64Gauge(name, gopts...)
	if err != nil {
		return nil, err
	}
	return &gauge{g: g}, nil
}

func (m *meter) Histogram(name, desc string, opts ...MetricOption) (Histogram, error) {
	o := applyMetricOptions(opts)
	hopts := []metric.Float64HistogramOption{metric.WithDescription(desc)}
	if o.unit != "" {
		hopts = append(hopts, metric.WithUnit(o.unit))
	}
	if len(o.buckets) > 0 {
		hopts = append(hopts, metric.WithExplicitBucketBoundaries(o.buckets...))
	}
	h, err := m.meter.Float64Histogram(name, hopts...)
	if err != nil {
		return nil, err
	}
	return &histogram{h: h}, nil
}

func (m *meter) Handler() http.Handler { return m.handler }

func (m *meter) Shutdown(ctx context.Context) error { return m.provider.Shutdown(ctx) }

type counter struct{ c metric.Float64Counter }

func (c *counter) Inc(ctx context.Context, labels ...Label) {
	c.c.Add(ctx, 1, metric.WithAttributes(toAttributes(labels)...))
}

func (c *counter) Add(ctx context.Context, val float64, labels ...Label) {
	c.c.Add(ctx, val, metric.WithAttributes(toAttributes(labels)...))
}

type gauge struct{ g metric.Float64Gauge }

func (g *gauge) Set(ctx context.Context, val float64, labels ...Label) {
	g.g.Record(ctx, val, metric.WithAttributes(toAttributes(labels)...))
}

type histogram struct{ h metric.Float64Histogram }

func (h *histogram) Record(ctx context.Context, val float64, labels ...Label) {
	h.h.Record(ctx, val, metric.WithAttributes(toAttributes(labels)...))
}

func toAttributes(labels []Label) []attribute.KeyValue {
	if len(labels) == 0 {
		return nil
	}
	attrs := make([]attribute.KeyValue, len(labels))
	for i, l := range labels {
		attrs[i] = attribute.String(l.Key, l.Value)
	}
	return attrs
}

// ============================================================================
// noop 实现
// ============================================================================

type noop struct{}

// Discard 返回丢弃所有记录的 Meter
func Discard() Meter { return noop{} }

func (noop) Counter(string, string, ...MetricOption) (Counter, error)     { return noop{}, nil }
func (noop) Gauge(string, string, ...MetricOption) (Gauge, error)         { return noop{}, nil }
func (noop) Histogram(string, string, ...MetricOption) (Histogram, error) { return noop{}, nil }
func (noop) Handler() http.Handler                                        { return http.NotFoundHandler() }
func (noop) Shutdown(context.Context) error                               { return nil }
func (noop) Inc(context.Context, ...Label)                                {}
func (noop) Add(context.Context, float64, ...Label)                       {}
func (noop) Set(context.Context, float64, ...Label)                       {}
func (noop) Record(context.Context, float64, ...Label)                    {}
