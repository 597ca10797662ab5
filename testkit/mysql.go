package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/ceyewan/idstore/connector"
)

// NewMySQLDSN 启动 MySQL 容器并返回 DSN，容器在测试结束时销毁。
func NewMySQLDSN(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("idstore"),
		mysql.WithUsername("idstore"),
		mysql.WithPassword("idstore"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start mysql container")

	dsn, err := container.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err)
	return dsn
}

// NewMySQLConnector 返回连接到新 MySQL 容器的连接器。
func NewMySQLConnector(t *testing.T) connector.DBConnector {
	t.Helper()
	return ConnectMySQL(t, NewMySQLDSN(t))
}

// ConnectMySQL 连接到 dsn，容器刚启动时可能尚未就绪，最多等待 60 秒。
func ConnectMySQL(t *testing.T, dsn string) connector.DBConnector {
	t.Helper()
	conn, err := connector.NewMySQL(&connector.MySQLConfig{Name: "test-mysql", DSN: dsn, MaxOpenConns: 20},
		connector.WithLogger(NewLogger()))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	for {
		if err = conn.Connect(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			require.NoError(t, err, "timeout waiting for mysql")
		case <-time.After(2 * time.Second):
		}
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
