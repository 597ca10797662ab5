package idstore

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"

	"github.com/ceyewan/idstore/connector"
)

// dialect SQL 后端之间的差异：事务选项与冲突错误识别
type dialect struct {
	driver string

	// txOptions 自建事务的选项，nil 表示驱动默认
	txOptions *sql.TxOptions

	// conflict 判断错误是否为并发冲突（行锁超时、死锁、序列化失败、首次插入撞主键）。
	// 只在自建事务中生效，外部事务中的任何错误都直接返回
	conflict func(error) bool
}

var readCommitted = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

var (
	sqliteDialect = dialect{
		// SQLite 只支持 SERIALIZABLE；WAL 下过期快照的写入返回 BUSY_SNAPSHOT
		driver:   connector.DriverSQLite,
		conflict: isSQLiteConflict,
	}
	mysqlDialect = dialect{
		driver:    connector.DriverMySQL,
		txOptions: readCommitted,
		conflict:  isMySQLConflict,
	}
	postgresDialect = dialect{
		driver:    connector.DriverPostgreSQL,
		txOptions: readCommitted,
		conflict:  isPostgresConflict,
	}
)

func isSQLiteConflict(err error) bool {
	var e sqlite3.Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return true
	case sqlite3.ErrConstraint:
		return e.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			e.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// MySQL 错误号
const (
	mysqlDuplicateEntry   = 1062
	mysqlLockWaitTimeout  = 1205
	mysqlDeadlockDetected = 1213
)

func isMySQLConflict(err error) bool {
	var e *mysql.MySQLError
	if !errors.As(err, &e) {
		return false
	}
	switch e.Number {
	case mysqlDuplicateEntry, mysqlLockWaitTimeout, mysqlDeadlockDetected:
		return true
	}
	return false
}

// PostgreSQL SQLSTATE
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

func isPostgresConflict(err error) bool {
	var e *pgconn.PgError
	if !errors.As(err, &e) {
		return false
	}
	switch e.Code {
	case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return true
	}
	return false
}
