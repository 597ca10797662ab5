package clog

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// NamespaceKey 命名空间字段名
const NamespaceKey = "namespace"

// Logger 结构化日志接口
//
// 子 Logger：
//
//	l := logger.With(clog.String("table", "People"))
//	l = l.WithNamespace("allocator") // namespace=idserver.allocator
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	DebugContext(ctx context.Context, msg string, fields ...Field)
	InfoContext(ctx context.Context, msg string, fields ...Field)
	WarnContext(ctx context.Context, msg string, fields ...Field)
	ErrorContext(ctx context.Context, msg string, fields ...Field)

	With(fields ...Field) Logger
	WithNamespace(parts ...string) Logger

	// SetLevel 运行时调整级别，对共享同一 handler 的所有子 Logger 生效
	SetLevel(level Level)
	Enabled(level Level) bool
}

type logger struct {
	handler *levelHandler
	opts    *options
	attrs   []Field
}

func (l *logger) Debug(msg string, fields ...Field) {
	l.log(context.Background(), DebugLevel, msg, fields)
}

func (l *logger) Info(msg string, fields ...Field) {
	l.log(context.Background(), InfoLevel, msg, fields)
}

func (l *logger) Warn(msg string, fields ...Field) {
	l.log(context.Background(), WarnLevel, msg, fields)
}

func (l *logger) Error(msg string, fields ...Field) {
	l.log(context.Background(), ErrorLevel, msg, fields)
}

func (l *logger) Fatal(msg string, fields ...Field) {
	l.log(context.Background(), FatalLevel, msg, fields)
	os.Exit(1)
}

func (l *logger) DebugContext(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, DebugLevel, msg, fields)
}

func (l *logger) InfoContext(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, InfoLevel, msg, fields)
}

func (l *logger) WarnContext(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, WarnLevel, msg, fields)
}

func (l *logger) ErrorContext(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, ErrorLevel, msg, fields)
}

func (l *logger) With(fields ...Field) Logger {
	attrs := make([]Field, 0, len(l.attrs)+len(fields))
	attrs = append(attrs, l.attrs...)
	attrs = append(attrs, fields...)
	return &logger{handler: l.handler, opts: l.opts, attrs: attrs}
}

func (l *logger) WithNamespace(parts ...string) Logger {
	o := *l.opts
	o.namespace = append(append([]string(nil), l.opts.namespace...), parts...)
	return &logger{handler: l.handler, opts: &o, attrs: l.attrs}
}

func (l *logger) SetLevel(level Level) {
	l.handler.level.Set(level.slog())
}

func (l *logger) Enabled(level Level) bool {
	return l.handler.Enabled(context.Background(), level.slog())
}

func (l *logger) log(ctx context.Context, level Level, msg string, fields []Field) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.handler.Enabled(ctx, level.slog()) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // runtime.Callers, log, Info/...
	r := slog.NewRecord(time.Now(), level.slog(), msg, pcs[0])

	if len(l.opts.namespace) > 0 {
		r.AddAttrs(slog.String(NamespaceKey, strings.Join(l.opts.namespace, ".")))
	}
	if l.opts.traceContext {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			r.AddAttrs(slog.String("trace_id", sc.TraceID().String()), slog.String("span_id", sc.SpanID().String()))
		}
	}
	r.AddAttrs(l.attrs...)
	for _, f := range fields {
		if f.Key != "" {
			r.AddAttrs(f)
		}
	}
	_ = l.handler.Handle(ctx, r)
}
