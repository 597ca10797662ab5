package connector

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ceyewan/idstore/xerrors"
)

// NewPostgreSQL 创建 PostgreSQL 连接器（pgx），Connect 时建立连接池。
func NewPostgreSQL(cfg *PostgreSQLConfig, opts ...Option) (DBConnector, error) {
	if cfg == nil {
		return nil, xerrors.Wrap(ErrConfig, "postgresql config is nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	dsn := cfg.dsn()
	return newGormConnector(DriverPostgreSQL, cfg.Name,
		func() gorm.Dialector { return postgres.Open(dsn) },
		pool{maxIdle: cfg.MaxIdleConns, maxOpen: cfg.MaxOpenConns, maxLifetime: cfg.ConnMaxLifetime},
		applyOptions(opts),
	), nil
}
