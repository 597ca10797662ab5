// Package trace 初始化 OpenTelemetry 的全局 TracerProvider 与 Propagator。
//
// idstore 的分配器从全局 TracerProvider 获取 tracer（或通过 idstore.WithTracerProvider 显式注入），
// 每次批量预留产生一个 idstore.allocate span。
//
//	shutdown, err := trace.Init(&trace.Config{ServiceName: "idserver", Endpoint: "localhost:4317"})
//	if err != nil { ... }
//	defer shutdown(ctx)
package trace

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"

	"github.com/ceyewan/idstore/xerrors"
)

// Init 创建 TracerProvider 并设置为全局实例。
//
// Endpoint 非空时通过 OTLP gRPC 导出到 Tempo / Jaeger 等后端；
// 为空时不导出，只生成 TraceID，供日志关联使用。
// 返回的 Shutdown 应在进程退出时调用以刷新剩余数据。
func Init(cfg *Config) (func(context.Context) error, error) {
	c := Config{}
	if cfg != nil {
		c = *cfg
	}
	c.setDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String(c.ServiceName)),
	)
	if err != nil {
		return nil, xerrors.Wrap(err, "create resource")
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.Sampler))),
	}

	if c.Endpoint != "" {
		eopts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(c.Endpoint),
			otlptracegrpc.WithTimeout(5 * time.Second),
		}
		if c.Insecure {
			eopts = append(eopts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, eopts...)
		if err != nil {
			return nil, xerrors.Wrap(err, "create otlp exporter")
		}
		if c.Batcher == "simple" {
			opts = append(opts, sdktrace.WithSyncer(exporter))
		} else {
			opts = append(opts, sdktrace.WithBatcher(exporter))
		}
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}
