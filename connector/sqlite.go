package connector

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ceyewan/idstore/xerrors"
)

// NewSQLite 创建 SQLite 连接器（mattn/go-sqlite3），Connect 时打开数据库。
func NewSQLite(cfg *SQLiteConfig, opts ...Option) (DBConnector, error) {
	if cfg == nil {
		return nil, xerrors.Wrap(ErrConfig, "sqlite config is nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	path := cfg.Path
	return newGormConnector(DriverSQLite, cfg.Name,
		func() gorm.Dialector { return sqlite.Open(path) },
		pool{maxOpen: cfg.MaxOpenConns},
		applyOptions(opts),
	), nil
}
