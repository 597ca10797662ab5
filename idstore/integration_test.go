//go:build integration

package idstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/idstore/connector"
	"github.com/ceyewan/idstore/testkit"
)

// ========================================
// MySQL / PostgreSQL（testcontainers）与 Etcd（本地实例）
// ========================================

func TestMySQLStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dsn := testkit.NewMySQLDSN(t)

	runStoreProperties(t, func(t *testing.T) *Factory {
		f, err := NewDefaultRegistry().ForConnector(testkit.ConnectMySQL(t, dsn), nil,
			WithLogger(testkit.NewLogger()))
		require.NoError(t, err)
		return f
	})

	t.Run("for dsn", func(t *testing.T) {
		ctx := testkit.NewContext(t, timeout)
		f, err := NewDefaultRegistry().ForDSN(connector.DriverMySQL, dsn, &Config{BatchSize: 4})
		require.NoError(t, err)
		gen := mustGenerator(t, f, testkit.NewTableName("Dsn"), 4)
		require.NoError(t, gen.Init(ctx))
		assert.Equal(t, []int64{1, 2, 3, 4, 5}, nextN(t, ctx, gen, 5))
	})
}

func TestPostgreSQLStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dsn := testkit.NewPostgreSQLDSN(t)

	runStoreProperties(t, func(t *testing.T) *Factory {
		f, err := NewDefaultRegistry().ForConnector(testkit.ConnectPostgreSQL(t, dsn), nil,
			WithLogger(testkit.NewLogger()))
		require.NoError(t, err)
		return f
	})

	t.Run("mixed case columns", func(t *testing.T) {
		ctx := testkit.NewContext(t, timeout)
		conn := testkit.ConnectPostgreSQL(t, dsn)
		f, err := NewDefaultRegistry().ForConnector(conn, nil)
		require.NoError(t, err)

		table := testkit.NewTableName("Quoted")
		gen := mustGenerator(t, f, table, 3)
		require.NoError(t, gen.Init(ctx))
		_, err = gen.Next(ctx)
		require.NoError(t, err)

		var last int64
		require.NoError(t, conn.GetClient().
			Raw(`SELECT "LastId" FROM "IdStore" WHERE "TableName" = ?`, table).Scan(&last).Error)
		assert.Equal(t, int64(3), last)
	})
}

func TestEtcdStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testkit.NewEtcdConnector(t)

	runStoreProperties(t, func(t *testing.T) *Factory {
		f, err := NewDefaultRegistry().ForConnector(testkit.NewEtcdConnector(t), nil,
			WithLogger(testkit.NewLogger()))
		require.NoError(t, err)
		return f
	})
}
