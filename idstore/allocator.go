package idstore

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/ceyewan/idstore/clog"
	"github.com/ceyewan/idstore/metrics"
	"github.com/ceyewan/idstore/xerrors"
)

// allocator 在 Store 之上循环执行 读-增-验，直到预留成功或出现非冲突错误。
// 除限速器外无可变状态
type allocator struct {
	store       Store
	maxAttempts int
	limiter     *rate.Limiter // nil 表示冲突后立即重试

	logger clog.Logger
	tracer trace.Tracer
	ins    *instruments
}

func newAllocator(store Store, cfg *Config, o *options, ins *instruments) *allocator {
	a := &allocator{
		store:       store,
		maxAttempts: cfg.MaxAttempts,
		logger:      o.logger.With(clog.String("driver", store.Driver())),
		tracer:      o.tracerProvider.Tracer(instrumentationName),
		ins:         ins,
	}
	if cfg.RetryRate > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(cfg.RetryRate), cfg.RetryBurst)
	}
	return a
}

// allocate 为 table 预留 size 个连续 ID。
//
// 冲突不会作为错误返回：默认无限重试、不退避。设置了 MaxAttempts 时，
// 连续冲突达到上限返回 ErrContention。ctx 在两次尝试之间检查
func (a *allocator) allocate(ctx context.Context, table string, size int64) (Batch, error) {
	ctx, span := a.tracer.Start(ctx, "idstore.allocate", trace.WithAttributes(
		attribute.String("idstore.driver", a.store.Driver()),
		attribute.String("idstore.table", table),
		attribute.Int64("idstore.batch_size", size),
	))
	defer span.End()

	labels := []metrics.Label{metrics.L("driver", a.store.Driver()), metrics.L("table", table)}
	start := time.Now()

	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			if err := a.wait(ctx); err != nil {
				return a.fail(span, err)
			}
		}

		first, ok, err := a.store.TryAllocate(ctx, table, size)
		if err != nil {
			a.logger.DebugContext(ctx, "allocation failed",
				clog.String("table", table), clog.Int("attempt", attempt), clog.Error(err))
			return a.fail(span, err)
		}
		if ok {
			batch := Batch{Next: first, Upper: first + size}
			a.ins.batches.Inc(ctx, labels...)
			a.ins.reserved.Add(ctx, float64(size), labels...)
			a.ins.duration.Record(ctx, time.Since(start).Seconds(), labels...)
			span.SetAttributes(
				attribute.Int("idstore.attempts", attempt),
				attribute.Int64("idstore.first_id", first),
			)
			a.logger.DebugContext(ctx, "batch reserved",
				clog.String("table", table),
				clog.Int64("first", batch.Next),
				clog.Int64("upper", batch.Upper),
				clog.Int("attempts", attempt),
			)
			return batch, nil
		}

		a.ins.conflicts.Inc(ctx, labels...)
		span.AddEvent("conflict", trace.WithAttributes(attribute.Int("idstore.attempt", attempt)))
		if a.maxAttempts > 0 && attempt >= a.maxAttempts {
			err := xerrors.Wrapf(ErrContention, "table %q: %d attempts", table, attempt)
			return a.fail(span, err)
		}
	}
}

// wait 冲突后的等待：检查 ctx，并在配置了速率时按速率放行
func (a *allocator) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.limiter == nil {
		return nil
	}
	return a.limiter.Wait(ctx)
}

func (a *allocator) fail(span trace.Span, err error) (Batch, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return Batch{}, err
}
