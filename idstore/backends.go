package idstore

import (
	"github.com/ceyewan/idstore/clog"
	"github.com/ceyewan/idstore/connector"
)

// RegisterBuiltins 注册内置的五种后端：sqlite、mysql、postgres、redis、etcd
func RegisterBuiltins(r *Registry) {
	for _, d := range []dialect{sqliteDialect, mysqlDialect, postgresDialect} {
		_ = r.Register(d.driver, Backend{
			FromConnector: func(conn connector.Connector, cfg *Config, logger clog.Logger) (Store, error) {
				return newSQLStore(conn, d, cfg, logger)
			},
			FromDSN: dialer(d.driver),
		})
	}
	_ = r.Register(connector.DriverRedis, Backend{FromConnector: newRedisStore, FromDSN: dialer(connector.DriverRedis)})
	_ = r.Register(connector.DriverEtcd, Backend{FromConnector: newEtcdStore, FromDSN: dialer(connector.DriverEtcd)})
}

func dialer(driver string) func(string, ...connector.Option) (connector.Connector, error) {
	return func(dsn string, opts ...connector.Option) (connector.Connector, error) {
		return connector.FromDSN(driver, dsn, opts...)
	}
}

// NewDefaultRegistry 返回已注册全部内置后端的注册表
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}
