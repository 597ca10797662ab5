package idstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/ceyewan/idstore/clog"
	"github.com/ceyewan/idstore/connector"
	"github.com/ceyewan/idstore/xerrors"
)

// sqlStore 基于 GORM 的计数器存储（SQLite / MySQL / PostgreSQL）
type sqlStore struct {
	conn    connector.DBConnector
	dialect dialect
	ops     counterOps
	logger  clog.Logger
}

func newSQLStore(conn connector.Connector, d dialect, cfg *Config, logger clog.Logger) (Store, error) {
	db, ok := conn.(connector.DBConnector)
	if !ok {
		return nil, xerrors.WithCode(xerrors.Wrapf(ErrInvalidInput,
			"%s backend needs a gorm connector, got %T", d.driver, conn), "connector_type_mismatch")
	}
	return &sqlStore{
		conn:    db,
		dialect: d,
		ops:     counterOps{table: cfg.CounterTable},
		logger:  logger,
	}, nil
}

func (s *sqlStore) Driver() string { return s.dialect.driver }

func (s *sqlStore) db(ctx context.Context) (*gorm.DB, error) {
	db := s.conn.GetClient()
	if db == nil {
		return nil, xerrors.Wrapf(connector.ErrClientNil, "%s connector[%s]", s.dialect.driver, s.conn.Name())
	}
	return db.WithContext(ctx), nil
}

// Init 计数器表不存在时创建。并发创建时落败的一方在表已存在时视为成功
func (s *sqlStore) Init(ctx context.Context) error {
	db, err := s.db(ctx)
	if err != nil {
		return err
	}
	m := db.Table(s.ops.table).Migrator()
	if m.HasTable(s.ops.table) {
		return nil
	}
	if err := m.CreateTable(&counterRow{}); err != nil {
		if m.HasTable(s.ops.table) {
			s.logger.Debug("counter table created concurrently", clog.String("counter_table", s.ops.table))
			return nil
		}
		return err
	}
	s.logger.Debug("counter table created", clog.String("counter_table", s.ops.table))
	return nil
}

func (s *sqlStore) Current(ctx context.Context, table string) (int64, error) {
	db, err := s.db(ctx)
	if err != nil {
		return 0, err
	}
	return s.ops.readLastID(db, table)
}

// inTransaction 判断 db 是否已处于调用方开启的事务中
func inTransaction(db *gorm.DB) bool {
	committer, ok := db.Statement.ConnPool.(gorm.TxCommitter)
	return ok && committer != nil
}

// allocSavepoint 调用方事务中每轮尝试的保存点
const allocSavepoint = "idstore_alloc"

// TryAllocate 单轮 读-增-验。
//
// 调用方已在事务中时直接复用，既不提交也不回滚，所有错误原样返回；
// 否则自建读已提交事务，冲突类错误回滚后报告 ok=false
func (s *sqlStore) TryAllocate(ctx context.Context, table string, size int64) (int64, bool, error) {
	db, err := s.db(ctx)
	if err != nil {
		return 0, false, err
	}

	if inTransaction(db) {
		return s.tryInCallerTx(db, table, size)
	}

	tx := db.Begin(s.dialect.txOptions)
	if tx.Error != nil {
		if s.dialect.conflict(tx.Error) {
			return 0, false, nil
		}
		return 0, false, tx.Error
	}

	actual, err := s.ops.readLastID(tx, table)
	if err != nil {
		return 0, false, s.abort(tx, table, err)
	}
	ok, err := s.reserve(tx, table, actual, size)
	if err != nil {
		return 0, false, s.abort(tx, table, err)
	}
	if !ok {
		s.rollback(tx, table)
		return 0, false, nil
	}

	if err := tx.Commit().Error; err != nil {
		// 提交失败时事务已由驱动结束
		if s.dialect.conflict(err) {
			s.logger.Debug("commit conflicted, retrying", clog.String("table", table), clog.Error(err))
			return 0, false, nil
		}
		return 0, false, err
	}
	return actual + 1, true, nil
}

// tryInCallerTx 在调用方事务中尝试一轮。
// 写入前设保存点，校验不符或出错时回到保存点撤销本轮写入，调用方事务保持打开
func (s *sqlStore) tryInCallerTx(tx *gorm.DB, table string, size int64) (int64, bool, error) {
	actual, err := s.ops.readLastID(tx, table)
	if err != nil {
		return 0, false, err
	}
	if err := tx.SavePoint(allocSavepoint).Error; err != nil {
		return 0, false, err
	}

	ok, err := s.reserve(tx, table, actual, size)
	if err != nil {
		if rbErr := tx.RollbackTo(allocSavepoint).Error; rbErr != nil {
			s.logger.Debug("rollback to savepoint failed", clog.String("table", table), clog.Error(rbErr))
		}
		return 0, false, err
	}
	if !ok {
		// 回不到保存点时本轮预留留在调用方事务里，不能再重试
		if err := tx.RollbackTo(allocSavepoint).Error; err != nil {
			return 0, false, err
		}
		return 0, false, nil
	}
	return actual + 1, true, nil
}

// abort 回滚自建事务；冲突类错误吞掉并报告重试
func (s *sqlStore) abort(tx *gorm.DB, table string, err error) error {
	s.rollback(tx, table)
	if s.dialect.conflict(err) {
		s.logger.Debug("row locked, retrying", clog.String("table", table), clog.Error(err))
		return nil
	}
	return err
}

func (s *sqlStore) rollback(tx *gorm.DB, table string) {
	if err := tx.Rollback().Error; err != nil {
		s.logger.Debug("rollback failed", clog.String("table", table), clog.Error(err))
	}
}

// reserve 在 tx 中把 LastId 从 actual 推进 size，再读取并与预期比较
func (s *sqlStore) reserve(tx *gorm.DB, table string, actual, size int64) (bool, error) {
	if err := checkHeadroom(table, actual, size); err != nil {
		return false, err
	}
	expected := actual + size

	if actual == 0 {
		// 没有行或残留 LastId=0 的行：先删后插
		if err := s.ops.deleteRow(tx, table); err != nil {
			return false, err
		}
		if err := s.ops.insertRow(tx, table, size); err != nil {
			return false, err
		}
	} else if err := s.ops.incrementLastID(tx, table, size); err != nil {
		return false, err
	}

	post, err := s.ops.readLastID(tx, table)
	if err != nil {
		return false, err
	}
	if post != expected {
		s.logger.Debug("verification mismatch",
			clog.String("table", table), clog.Int64("expected", expected), clog.Int64("actual", post))
		return false, nil
	}
	return true, nil
}
