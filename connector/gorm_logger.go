package connector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ceyewan/idstore/clog"
)

const slowSQLThreshold = 200 * time.Millisecond

// gormLogger 将 GORM 日志转到 clog。SQL 明细只在 clog 开启 Debug 时输出。
type gormLogger struct {
	logger clog.Logger
	level  logger.LogLevel
}

func newGormLogger(l clog.Logger) logger.Interface {
	return &gormLogger{logger: l.WithNamespace("gorm"), level: logger.Info}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Trace 记录每条 SQL。行不存在属于正常路径，锁冲突会被分配器重试，
// 两者都只记为 Debug。
func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.logger.DebugContext(ctx, "sql error",
			clog.Duration("duration", elapsed), clog.String("sql", sql), clog.Int64("rows", rows), clog.Error(err))
	case elapsed > slowSQLThreshold && l.level >= logger.Warn:
		sql, rows := fc()
		l.logger.WarnContext(ctx, "slow sql",
			clog.Duration("duration", elapsed), clog.String("sql", sql), clog.Int64("rows", rows))
	case l.logger.Enabled(clog.DebugLevel):
		sql, rows := fc()
		l.logger.DebugContext(ctx, "sql",
			clog.Duration("duration", elapsed), clog.String("sql", sql), clog.Int64("rows", rows))
	}
}
