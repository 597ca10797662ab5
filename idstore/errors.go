package idstore

import (
	"math"

	"github.com/ceyewan/idstore/xerrors"
)

var (
	// ErrInvalidInput 参数不合法：表名为空、批大小不为正等
	ErrInvalidInput = xerrors.New("idstore: invalid input")

	// ErrConnectorNil 未提供连接器或连接串
	ErrConnectorNil = xerrors.New("idstore: connector is nil")

	// ErrBackendNotRegistered 注册表中没有该后端
	ErrBackendNotRegistered = xerrors.New("idstore: backend not registered")

	// ErrClosed 句柄已关闭
	ErrClosed = xerrors.New("idstore: generator closed")

	// ErrContention 达到 MaxAttempts 仍未分配成功，仅在设置了 MaxAttempts 时出现
	ErrContention = xerrors.New("idstore: allocation contention")

	// ErrExhausted 再预留一批会超出 int64 范围
	ErrExhausted = xerrors.New("idstore: id space exhausted")
)

// checkHeadroom 确认 LastId 之后还能放下 size 个 ID，且批次上界 Upper 不溢出
func checkHeadroom(table string, last, size int64) error {
	if last > math.MaxInt64-size-1 {
		return xerrors.WithCode(
			xerrors.Wrapf(ErrExhausted, "table %q: LastId %d, batch %d", table, last, size),
			"id_space_exhausted")
	}
	return nil
}
