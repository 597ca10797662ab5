package testkit

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ceyewan/idstore/connector"
)

// NewSQLiteDSN 返回临时目录下的 SQLite 文件 DSN。
// 开启 WAL 与 busy_timeout，使并发写入者排队而不是立即失败。
func NewSQLiteDSN(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "idstore.db")
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
}

// NewSQLiteConnector 返回已连接的 SQLite 连接器（临时文件数据库）。
func NewSQLiteConnector(t *testing.T) connector.DBConnector {
	t.Helper()
	return ConnectSQLite(t, NewSQLiteDSN(t))
}

// ConnectSQLite 为给定 DSN 创建并连接一个独立的连接器，
// 多个连接器指向同一 DSN 时模拟多个进程共享同一数据库。
func ConnectSQLite(t *testing.T, dsn string) connector.DBConnector {
	t.Helper()
	conn, err := connector.NewSQLite(&connector.SQLiteConfig{Name: "test-sqlite", Path: dsn},
		connector.WithLogger(NewLogger()))
	require.NoError(t, err, "create sqlite connector")
	require.NoError(t, conn.Connect(context.Background()), "connect sqlite")
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
