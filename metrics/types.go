// Package metrics 基于 OpenTelemetry 提供 Counter / Gauge / Histogram 指标，
// 通过 Prometheus exporter 暴露。
//
// 未启用时 New 返回 noop 实现，idstore 的分配器在未注入 Meter 时同样使用 Discard()。
//
//	meter, _ := metrics.New(&metrics.Config{Enabled: true, ServiceName: "idserver"})
//	defer meter.Shutdown(ctx)
//	batches, _ := meter.Counter("idstore_batches_total", "已预留的批次数")
//	batches.Inc(ctx, metrics.L("table", "People"))
package metrics

import (
	"context"
	"net/http"
)

// Counter 单调递增计数器
type Counter interface {
	Inc(ctx context.Context, labels ...Label)
	Add(ctx context.Context, val float64, labels ...Label)
}

// Gauge 瞬时值
type Gauge interface {
	Set(ctx context.Context, val float64, labels ...Label)
}

// Histogram 分布
type Histogram interface {
	Record(ctx context.Context, val float64, labels ...Label)
}

// Meter 指标工厂，创建出的指标可并发使用
type Meter interface {
	Counter(name, desc string, opts ...MetricOption) (Counter, error)
	Gauge(name, desc string, opts ...MetricOption) (Gauge, error)
	Histogram(name, desc string, opts ...MetricOption) (Histogram, error)

	// Handler 返回 Prometheus 抓取端点；noop 实现返回 404
	Handler() http.Handler
	Shutdown(ctx context.Context) error
}

// Label 指标标签，值应当是低基数的
type Label struct {
	Key   string
	Value string
}

// L 构造 Label
func L(key, value string) Label { return Label{Key: key, Value: value} }

// MetricOption 指标选项
type MetricOption func(*metricOptions)

type metricOptions struct {
	unit    string
	buckets []float64
}

// WithUnit 设置单位，建议使用 UCUM 代码，如 "s"、"By"
func WithUnit(unit string) MetricOption {
	return func(o *metricOptions) { o.unit = unit }
}

// WithBuckets 设置直方图桶边界
func WithBuckets(buckets ...float64) MetricOption {
	return func(o *metricOptions) { o.buckets = buckets }
}
