package connector

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/ceyewan/idstore/xerrors"
)

// NewMySQL 创建 MySQL 连接器，Connect 时建立连接池。
func NewMySQL(cfg *MySQLConfig, opts ...Option) (DBConnector, error) {
	if cfg == nil {
		return nil, xerrors.Wrap(ErrConfig, "mysql config is nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	dsn := cfg.dsn()
	return newGormConnector(DriverMySQL, cfg.Name,
		func() gorm.Dialector { return mysql.Open(dsn) },
		pool{maxIdle: cfg.MaxIdleConns, maxOpen: cfg.MaxOpenConns, maxLifetime: cfg.ConnMaxLifetime},
		applyOptions(opts),
	), nil
}
