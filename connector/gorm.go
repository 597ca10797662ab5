package connector

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/ceyewan/idstore/clog"
	"github.com/ceyewan/idstore/xerrors"
)

type pool struct {
	maxIdle     int
	maxOpen     int
	maxLifetime time.Duration
}

// gormConnector SQLite / MySQL / PostgreSQL 共用的实现，差异只在 dialector 与连接池参数
type gormConnector struct {
	*base
	open func() gorm.Dialector
	pool pool

	mu    sync.RWMutex
	db    *gorm.DB
	owned bool // FromGorm 包装的 db 不归本连接器关闭
}

func newGormConnector(driver, name string, open func() gorm.Dialector, p pool, o *options) *gormConnector {
	return &gormConnector{
		base:  newBase(driver, name, o),
		open:  open,
		pool:  p,
		owned: true,
	}
}

func (c *gormConnector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return nil
	}
	if c.open == nil {
		return xerrors.Wrapf(ErrClientNil, "%s connector[%s]: external db released", c.driver, c.name)
	}

	db, err := gorm.Open(c.open(), &gorm.Config{Logger: newGormLogger(c.logger)})
	if err != nil {
		c.connectFailed(ctx, err)
		return xerrors.Wrapf(ErrConnection, "%s connector[%s]: %v", c.driver, c.name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		c.connectFailed(ctx, err)
		return xerrors.Wrapf(ErrConnection, "%s connector[%s]: %v", c.driver, c.name, err)
	}
	if c.pool.maxIdle > 0 {
		sqlDB.SetMaxIdleConns(c.pool.maxIdle)
	}
	if c.pool.maxOpen > 0 {
		sqlDB.SetMaxOpenConns(c.pool.maxOpen)
	}
	if c.pool.maxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(c.pool.maxLifetime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		c.connectFailed(ctx, err)
		return xerrors.Wrapf(ErrConnection, "%s connector[%s]: ping: %v", c.driver, c.name, err)
	}

	c.db = db
	c.connected(ctx)
	return nil
}

func (c *gormConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	db := c.db
	c.db = nil
	c.closed()

	if !c.owned {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (c *gormConnector) HealthCheck(ctx context.Context) error {
	db := c.GetClient()
	if db == nil {
		c.healthy.Store(false)
		return xerrors.Wrapf(ErrClientNil, "%s connector[%s]", c.driver, c.name)
	}

	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		c.healthy.Store(false)
		c.logger.Warn("health check failed", clog.Error(err))
		return xerrors.Wrapf(ErrHealthCheck, "%s connector[%s]: %v", c.driver, c.name, err)
	}
	c.healthy.Store(true)
	return nil
}

func (c *gormConnector) GetClient() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// FromGorm 将已打开的 *gorm.DB 包装为连接器，driver 取 Driver* 常量。
//
// db 可以是 db.Begin() 得到的事务：idstore 会识别出外部事务并在其中完成分配，
// 既不提交也不回滚它。Connect 为空操作，Close 只解除引用，不关闭 db。
func FromGorm(driver string, db *gorm.DB, opts ...Option) (DBConnector, error) {
	if db == nil {
		return nil, xerrors.Wrap(ErrClientNil, "from gorm")
	}
	switch driver {
	case DriverSQLite, DriverMySQL, DriverPostgreSQL:
	default:
		return nil, xerrors.Wrapf(ErrUnknownDriver, "from gorm: %q", driver)
	}

	c := newGormConnector(driver, "external", nil, pool{}, applyOptions(opts))
	c.owned = false
	c.db = db
	c.healthy.Store(true)
	return c, nil
}
