// Package idstore 基于共享计数器存储批量分配全局唯一的整数 ID。
//
// 每个逻辑表在计数器存储中对应一行 (TableName, LastId)。生成器句柄一次预留
// [LastId+1, LastId+BatchSize] 整段，之后在本地逐个发放，用完再预留下一段。
// 多个句柄（同进程或跨进程）之间只通过存储自身的事务或 CAS 协调：
//
//	读取 LastId → 相对自增 BatchSize → 重新读取 → 与期望值比较
//
// 不一致说明有并发写入插队，放弃本次结果并从头重试。重试默认无上限、无退避。
//
// 支持的后端：SQLite、MySQL、PostgreSQL（GORM 事务，读已提交）、Redis（WATCH/MULTI）、
// Etcd（ModRevision 比较事务）。后端通过显式的 Registry 按 Driver 标识选择：
//
//	reg := idstore.NewDefaultRegistry()
//	factory, err := reg.ForConnector(conn, &idstore.Config{BatchSize: 100})
//	if err != nil { ... }
//	gen, err := factory.Generator("People")
//	if err != nil { ... }
//	defer gen.Close()
//	_ = gen.Init(ctx)
//	id, err := gen.Next(ctx)
//
// 句柄不是并发安全的，每个 goroutine 应持有自己的句柄。
package idstore

import "context"

// ========================================
// 接口定义
// ========================================

// Generator 一个逻辑表的 ID 生成句柄，仅供单个 goroutine 顺序使用。
type Generator interface {
	// Next 返回下一个 ID。本地预留段用完时向存储申请新的一段
	Next(ctx context.Context) (int64, error)

	// Init 创建计数器表（如不存在），幂等且可并发调用
	Init(ctx context.Context) error

	// Close 释放句柄。只关闭由连接串创建的连接，外部传入的连接保持不变。
	// 未发放的预留 ID 随之丢弃
	Close() error

	Table() string
	BatchSize() int64
}

// Store 计数器存储后端
type Store interface {
	// Driver 后端标识，与 connector.Driver* 一致
	Driver() string

	// Init 准备存储结构，幂等
	Init(ctx context.Context) error

	// TryAllocate 执行一轮 读-增-验。
	// ok 为 false 表示检测到并发冲突，本轮没有预留任何 ID，调用方应重试；
	// ok 为 true 时 [first, first+size) 归调用方所有
	TryAllocate(ctx context.Context, table string, size int64) (first int64, ok bool, err error)

	// Current 返回表当前的 LastId，没有记录时为 0
	Current(ctx context.Context, table string) (int64, error)
}

// Batch 已预留的半开区间 [Next, Upper)
type Batch struct {
	Next  int64
	Upper int64
}

// Len 剩余可发放数量
func (b Batch) Len() int64 {
	if b.Upper <= b.Next {
		return 0
	}
	return b.Upper - b.Next
}
