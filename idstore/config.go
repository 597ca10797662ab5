package idstore

import (
	"strings"

	"github.com/ceyewan/idstore/xerrors"
)

const (
	// DefaultCounterTable 计数器表名
	DefaultCounterTable = "IdStore"

	// DefaultKeyPrefix Redis / Etcd 键前缀
	DefaultKeyPrefix = "idstore"

	// maxTableNameLen 与 TableName 列宽一致
	maxTableNameLen = 128
)

// ========================================
// 配置结构
// ========================================

// Config 生成器工厂配置
type Config struct {
	// BatchSize Factory.Generator 使用的默认批大小，默认 1
	BatchSize int64 `yaml:"batch_size" json:"batch_size" mapstructure:"batch_size"`

	// CounterTable SQL 后端的计数器表名，默认 "IdStore"
	CounterTable string `yaml:"counter_table" json:"counter_table" mapstructure:"counter_table"`

	// KeyPrefix Redis 键为 <prefix>:<table>，Etcd 键为 /<prefix>/<table>，默认 "idstore"
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix" mapstructure:"key_prefix"`

	// MaxAttempts 单次分配最多尝试次数，0 表示不限制（默认）。
	// 超过后返回 ErrContention
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts" mapstructure:"max_attempts"`

	// RetryRate 冲突重试的速率上限（次/秒），0 表示立即重试（默认）
	RetryRate float64 `yaml:"retry_rate" json:"retry_rate" mapstructure:"retry_rate"`

	// RetryBurst 速率限制的突发量，默认 1
	RetryBurst int `yaml:"retry_burst" json:"retry_burst" mapstructure:"retry_burst"`
}

func (c *Config) setDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = 1
	}
	if c.CounterTable == "" {
		c.CounterTable = DefaultCounterTable
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = DefaultKeyPrefix
	}
	if c.RetryRate > 0 && c.RetryBurst <= 0 {
		c.RetryBurst = 1
	}
}

func (c *Config) validate() error {
	if c.BatchSize <= 0 {
		return xerrors.WithCode(ErrInvalidInput, "batch_size_not_positive")
	}
	if strings.ContainsAny(c.CounterTable, " \t\"`'") {
		return xerrors.WithCode(ErrInvalidInput, "counter_table_invalid")
	}
	if c.MaxAttempts < 0 {
		return xerrors.WithCode(ErrInvalidInput, "max_attempts_negative")
	}
	if c.RetryRate < 0 {
		return xerrors.WithCode(ErrInvalidInput, "retry_rate_negative")
	}
	return nil
}

// normalize 返回填充默认值并校验后的副本，cfg 可以为 nil
func normalize(cfg *Config) (*Config, error) {
	c := Config{}
	if cfg != nil {
		c = *cfg
	}
	c.setDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func validateTable(table string) error {
	if table == "" {
		return xerrors.WithCode(ErrInvalidInput, "table_name_empty")
	}
	if len(table) > maxTableNameLen {
		return xerrors.WithCode(ErrInvalidInput, "table_name_too_long")
	}
	return nil
}

func validateBatchSize(size int64) error {
	if size <= 0 {
		return xerrors.WithCode(ErrInvalidInput, "batch_size_not_positive")
	}
	return nil
}
