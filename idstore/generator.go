package idstore

import (
	"context"

	"github.com/ceyewan/idstore/clog"
	"github.com/ceyewan/idstore/connector"
)

// generator Generator 的实现。
//
// 状态：batch.Len() == 0 为 Empty，否则为 Holding。Next 在 Empty 时先预留新批次，
// 返回 batch.Next 后自增；发完最后一个 ID 后自然回到 Empty，下一次调用才去存储
type generator struct {
	table     string
	batchSize int64

	conn  connector.Connector
	owned bool // 由 DSN 创建的连接器归句柄所有，Close 时关闭
	store Store
	alloc *allocator

	batch  Batch
	closed bool
	logger clog.Logger
}

func newGenerator(conn connector.Connector, owned bool, store Store, alloc *allocator,
	table string, batchSize int64, logger clog.Logger) *generator {
	return &generator{
		table:     table,
		batchSize: batchSize,
		conn:      conn,
		owned:     owned,
		store:     store,
		alloc:     alloc,
		logger:    logger.With(clog.String("table", table)),
	}
}

func (g *generator) Table() string    { return g.table }
func (g *generator) BatchSize() int64 { return g.batchSize }

// Next 返回下一个 ID
func (g *generator) Next(ctx context.Context) (int64, error) {
	if g.closed {
		return 0, ErrClosed
	}
	if g.batch.Len() == 0 {
		if err := g.conn.Connect(ctx); err != nil {
			return 0, err
		}
		batch, err := g.alloc.allocate(ctx, g.table, g.batchSize)
		if err != nil {
			return 0, err
		}
		g.batch = batch
	}
	id := g.batch.Next
	g.batch.Next++
	return id, nil
}

// Init 创建计数器存储结构
func (g *generator) Init(ctx context.Context) error {
	if g.closed {
		return ErrClosed
	}
	if err := g.conn.Connect(ctx); err != nil {
		return err
	}
	return g.store.Init(ctx)
}

// Close 幂等。未发放的 ID 被丢弃，存储中的 LastId 不回退
func (g *generator) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	if remaining := g.batch.Len(); remaining > 0 {
		g.logger.Debug("discarding unused ids", clog.Int64("remaining", remaining))
	}
	g.batch = Batch{}
	if !g.owned {
		return nil
	}
	return g.conn.Close()
}
