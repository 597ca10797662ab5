package idstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceyewan/idstore/clog"
	"github.com/ceyewan/idstore/connector"
	"github.com/ceyewan/idstore/testkit"
	"github.com/ceyewan/idstore/xerrors"
)

func TestRegistry_Builtins(t *testing.T) {
	reg := NewDefaultRegistry()
	assert.Equal(t, []string{"etcd", "mysql", "postgres", "redis", "sqlite"}, reg.Drivers())
	for _, d := range reg.Drivers() {
		assert.True(t, reg.IsRegistered(d))
	}
	assert.Empty(t, NewRegistry().Drivers(), "注册表之间互不共享")
}

func TestRegistry_UnknownDriver(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("fake", fakeBackend(newFakeStore(), nil)))

	_, err := reg.ForDSN("oracle", "oracle://localhost", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackendNotRegistered)
	assert.True(t, xerrors.HasCode(err, "backend_not_registered"))
	assert.Contains(t, err.Error(), `"oracle"`, "错误信息应包含后端名")
	assert.Contains(t, err.Error(), "fake", "错误信息应列出已注册的后端")

	_, err = reg.ForConnector(&fakeConn{driver: "db2"}, nil)
	assert.ErrorIs(t, err, ErrBackendNotRegistered)
	assert.Contains(t, err.Error(), `"db2"`)
}

func TestRegistry_LastWriteWins(t *testing.T) {
	first, second := newFakeStore(), newFakeStore()
	second.last["People"] = 100

	reg := NewRegistry()
	require.NoError(t, reg.Register("fake", fakeBackend(first, nil)))
	require.NoError(t, reg.Register("fake", fakeBackend(second, nil)))
	assert.Equal(t, []string{"fake"}, reg.Drivers())

	f, err := reg.ForConnector(&fakeConn{driver: "fake"}, nil)
	require.NoError(t, err)
	gen, err := f.Generator("People")
	require.NoError(t, err)
	id, err := gen.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(101), id, "应使用后注册的后端")
	assert.Zero(t, first.Attempts())
}

func TestRegistry_Unregister(t *testing.T) {
	reg := NewDefaultRegistry()
	reg.Unregister(connector.DriverEtcd)
	reg.Unregister("never-registered")
	assert.False(t, reg.IsRegistered(connector.DriverEtcd))

	_, err := reg.ForDSN(connector.DriverEtcd, "localhost:2379", nil)
	assert.ErrorIs(t, err, ErrBackendNotRegistered)
}

func TestRegistry_RegisterValidation(t *testing.T) {
	reg := NewRegistry()

	err := reg.Register("", fakeBackend(newFakeStore(), nil))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.True(t, xerrors.HasCode(err, "driver_empty"))

	err = reg.Register("half", Backend{
		FromConnector: func(connector.Connector, *Config, clog.Logger) (Store, error) { return newFakeStore(), nil },
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.True(t, xerrors.HasCode(err, "backend_incomplete"))
	assert.False(t, reg.IsRegistered("half"))
}

func TestRegistry_InvalidConfig(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("fake", fakeBackend(newFakeStore(), nil)))

	_, err := reg.ForConnector(&fakeConn{driver: "fake"}, &Config{BatchSize: -1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.True(t, xerrors.HasCode(err, "batch_size_not_positive"))
}

func TestRegistry_ConnectorTypeMismatch(t *testing.T) {
	reg := NewDefaultRegistry()
	// 连接器声称自己是 redis，但并不提供 redis 客户端
	f, err := reg.ForConnector(&fakeConn{driver: connector.DriverRedis}, nil)
	require.NoError(t, err)

	_, err = f.Generator("People")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.True(t, xerrors.HasCode(err, "connector_type_mismatch"))
}

func TestRegistry_ForDSN(t *testing.T) {
	ctx := testkit.NewContext(t, timeout)
	dsn := testkit.NewSQLiteDSN(t)

	f, err := NewDefaultRegistry().ForDSN(connector.DriverSQLite, dsn, &Config{BatchSize: 3},
		WithLogger(testkit.NewLogger()))
	require.NoError(t, err)
	assert.Equal(t, connector.DriverSQLite, f.Driver())

	gen, err := f.Generator("People")
	require.NoError(t, err)
	require.NoError(t, gen.Init(ctx))
	assert.Equal(t, []int64{1, 2, 3, 4}, nextN(t, ctx, gen, 4))
	require.NoError(t, gen.Close())

	// 句柄关闭后连接被释放，另一个句柄用自己的连接继续
	last, err := f.Current(ctx, "People")
	require.NoError(t, err)
	assert.Equal(t, int64(6), last)

	_, err = f.Current(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
