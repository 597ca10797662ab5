// Package connector 管理 idstore 计数器存储的连接。
//
// 每个连接器报告一个 Driver() 标识（sqlite/mysql/postgres/redis/etcd），
// idstore.Registry 以该标识选择后端实现。
//
// 约定：
//   - NewXXX 只校验配置，不建立连接；Connect 幂等，首次调用时连接
//   - 谁创建谁关闭。idstore 的生成器只关闭自己通过 DSN 创建的连接器
//   - FromGorm 包装调用方已有的 *gorm.DB（可以是事务），Close 不会关闭它
//
//	conn, _ := connector.NewSQLite(&connector.SQLiteConfig{Path: "ids.db"})
//	defer conn.Close()
//	if err := conn.Connect(ctx); err != nil { ... }
//	db := conn.GetClient()
package connector

import (
	"context"

	"github.com/redis/go-redis/v9"
	clientv3 "go.etcd.io/etcd/client/v3"
	"gorm.io/gorm"
)

// 后端标识
const (
	DriverSQLite     = "sqlite"
	DriverMySQL      = "mysql"
	DriverPostgreSQL = "postgres"
	DriverRedis      = "redis"
	DriverEtcd       = "etcd"
)

// =============================================================================
// 基础接口
// =============================================================================

// Connector 所有连接器的公共行为，方法并发安全。
type Connector interface {
	// Connect 建立连接，幂等
	Connect(ctx context.Context) error
	// Close 释放连接，幂等
	Close() error
	HealthCheck(ctx context.Context) error
	// IsHealthy 返回最近一次检查的结果，不阻塞
	IsHealthy() bool
	// Name 实例名，用于日志与指标
	Name() string
	// Driver 后端标识，取值见 Driver* 常量
	Driver() string
}

// TypedConnector 提供类型化的客户端访问。Connect 之前或 Close 之后 GetClient 可能返回 nil。
type TypedConnector[T any] interface {
	Connector
	GetClient() T
}

// =============================================================================
// 具体连接器接口
// =============================================================================

// DBConnector 基于 GORM 的关系型数据库连接器（SQLite / MySQL / PostgreSQL）。
type DBConnector interface {
	TypedConnector[*gorm.DB]
}

// RedisConnector Redis 连接器
type RedisConnector interface {
	TypedConnector[*redis.Client]
}

// EtcdConnector Etcd 连接器
type EtcdConnector interface {
	TypedConnector[*clientv3.Client]
}
