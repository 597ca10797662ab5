// Package testkit 提供 idstore 测试使用的依赖：日志、指标、唯一名称
// 以及各后端的连接器。所有连接器的生命周期由 t.Cleanup 管理。
//
// SQLite 与 miniredis 在进程内运行；MySQL / PostgreSQL 通过 testcontainers 启动，
// etcd 连接本地实例，三者仅在 integration 构建标签下的测试中使用。
package testkit

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ceyewan/idstore/clog"
	"github.com/ceyewan/idstore/metrics"
)

// NewLogger 返回测试日志。设置 IDSTORE_TEST_LOG=debug 时输出到 stderr，否则丢弃。
func NewLogger() clog.Logger {
	level := os.Getenv("IDSTORE_TEST_LOG")
	if level == "" {
		return clog.Discard()
	}
	logger, err := clog.New(&clog.Config{Level: level, Format: "console", Output: "stderr"})
	if err != nil {
		return clog.Discard()
	}
	return logger
}

// NewMeter 返回启用的 Meter，测试可以通过 Handler() 抓取结果。
func NewMeter(t *testing.T) metrics.Meter {
	t.Helper()
	m, err := metrics.New(&metrics.Config{Enabled: true, ServiceName: "idstore-test"})
	if err != nil {
		t.Fatalf("create meter: %v", err)
	}
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	return m
}

// NewContext 返回带超时的上下文，测试结束时取消。
func NewContext(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// NewID 返回 8 位随机十六进制串
func NewID() string {
	return uuid.New().String()[0:8]
}

// NewTableName 返回以 prefix 开头的唯一逻辑表名，避免共享后端的测试互相干扰。
func NewTableName(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(NewID(), "-", "")
}
