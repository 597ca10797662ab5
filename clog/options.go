package clog

import "io"

// Option 函数式选项
type Option func(*options)

type options struct {
	namespace    []string
	writer       io.Writer
	traceContext bool
}

// WithNamespace 设置命名空间，多段以 "." 连接后输出到 namespace 字段。
func WithNamespace(parts ...string) Option {
	return func(o *options) {
		o.namespace = append(o.namespace, parts...)
	}
}

// WithWriter 指定输出目标，优先于 Config.Output。测试中常用于捕获输出。
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithTraceContext 从 Context 中提取 OpenTelemetry 的 trace_id / span_id。
func WithTraceContext() Option {
	return func(o *options) {
		o.traceContext = true
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
