package connector

import (
	"strings"

	"github.com/ceyewan/idstore/xerrors"
)

// FromDSN 根据后端标识与连接串创建连接器（尚未连接）。
//
//	sqlite:   文件路径或 "file:ids.db?_busy_timeout=5000"
//	mysql:    "user:pass@tcp(host:3306)/db?parseTime=true"
//	postgres: "host=... user=... dbname=..." 或 "postgres://..."
//	redis:    "redis://:pass@host:6379/0"，也接受 "host:6379"
//	etcd:     逗号分隔的 endpoint 列表
func FromDSN(driver, dsn string, opts ...Option) (Connector, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, xerrors.Wrapf(ErrConfig, "%s: connection string is empty", driver)
	}
	switch driver {
	case DriverSQLite:
		return NewSQLite(&SQLiteConfig{Path: dsn}, opts...)
	case DriverMySQL:
		return NewMySQL(&MySQLConfig{DSN: dsn}, opts...)
	case DriverPostgreSQL:
		return NewPostgreSQL(&PostgreSQLConfig{DSN: dsn}, opts...)
	case DriverRedis:
		if strings.Contains(dsn, "://") {
			return NewRedis(&RedisConfig{URL: dsn}, opts...)
		}
		return NewRedis(&RedisConfig{Addr: dsn}, opts...)
	case DriverEtcd:
		var endpoints []string
		for _, ep := range strings.Split(dsn, ",") {
			if ep = strings.TrimSpace(ep); ep != "" {
				endpoints = append(endpoints, ep)
			}
		}
		return NewEtcd(&EtcdConfig{Endpoints: endpoints}, opts...)
	}
	return nil, xerrors.Wrapf(ErrUnknownDriver, "%q", driver)
}
