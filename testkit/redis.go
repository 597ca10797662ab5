package testkit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/idstore/connector"
)

// NewMiniRedis 启动进程内 Redis，测试结束时关闭。
func NewMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	return miniredis.RunT(t)
}

// NewRedisConnector 返回连接到 mr 的 Redis 连接器。
func NewRedisConnector(t *testing.T, mr *miniredis.Miniredis) connector.RedisConnector {
	t.Helper()
	conn, err := connector.NewRedis(&connector.RedisConfig{Name: "test-redis", Addr: mr.Addr()},
		connector.WithLogger(NewLogger()))
	require.NoError(t, err, "create redis connector")
	require.NoError(t, conn.Connect(context.Background()), "connect redis")
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
