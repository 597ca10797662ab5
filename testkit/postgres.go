package testkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/ceyewan/idstore/connector"
)

// NewPostgreSQLDSN 启动 PostgreSQL 容器并返回 DSN，容器在测试结束时销毁。
func NewPostgreSQLDSN(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithDatabase("idstore"),
		postgres.WithUsername("idstore"),
		postgres.WithPassword("idstore"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start postgresql container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

// NewPostgreSQLConnector 返回连接到新 PostgreSQL 容器的连接器。
func NewPostgreSQLConnector(t *testing.T) connector.DBConnector {
	t.Helper()
	return ConnectPostgreSQL(t, NewPostgreSQLDSN(t))
}

// ConnectPostgreSQL 为 dsn 创建独立的连接器。
func ConnectPostgreSQL(t *testing.T, dsn string) connector.DBConnector {
	t.Helper()
	conn, err := connector.NewPostgreSQL(&connector.PostgreSQLConfig{Name: "test-postgres", DSN: dsn, MaxOpenConns: 20},
		connector.WithLogger(NewLogger()))
	require.NoError(t, err)
	require.NoError(t, conn.Connect(context.Background()), "connect postgresql")
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
