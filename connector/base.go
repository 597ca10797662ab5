package connector

import (
	"context"
	"sync/atomic"

	"github.com/ceyewan/idstore/clog"
	"github.com/ceyewan/idstore/metrics"
)

// base 各连接器共享的生命周期记录：日志、健康状态与连接指标
type base struct {
	name    string
	driver  string
	logger  clog.Logger
	healthy atomic.Bool

	attempts metrics.Counter
	active   metrics.Gauge
}

func newBase(driver, name string, o *options) *base {
	b := &base{
		name:   name,
		driver: driver,
		logger: o.logger.With(clog.String("connector", driver), clog.String("name", name)),
	}
	b.attempts, _ = o.meter.Counter("connector_connect_attempts_total", "连接尝试次数")
	b.active, _ = o.meter.Gauge("connector_active", "连接是否处于打开状态")
	return b
}

func (b *base) Name() string    { return b.name }
func (b *base) Driver() string  { return b.driver }
func (b *base) IsHealthy() bool { return b.healthy.Load() }

func (b *base) labels(result string) []metrics.Label {
	return []metrics.Label{metrics.L("driver", b.driver), metrics.L("name", b.name), metrics.L("result", result)}
}

func (b *base) connected(ctx context.Context) {
	b.healthy.Store(true)
	b.attempts.Inc(ctx, b.labels("success")...)
	b.active.Set(ctx, 1, metrics.L("driver", b.driver), metrics.L("name", b.name))
	b.logger.Info("connected")
}

func (b *base) connectFailed(ctx context.Context, err error) {
	b.healthy.Store(false)
	b.attempts.Inc(ctx, b.labels("error")...)
	b.logger.Error("connect failed", clog.Error(err))
}

func (b *base) closed() {
	b.healthy.Store(false)
	b.active.Set(context.Background(), 0, metrics.L("driver", b.driver), metrics.L("name", b.name))
	b.logger.Info("connection closed")
}
