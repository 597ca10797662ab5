// Package config 为 idstore 的示例服务与集成测试加载配置，基于 Viper。
//
// 优先级：环境变量 > .env > <name>.<env>.yaml > <name>.yaml。
// 环境变量以 EnvPrefix 开头，层级用 "_" 分隔，例如 IDSTORE_STORE_DRIVER。
//
//	loader, err := config.New(&config.Config{Name: "idserver", EnvPrefix: "IDSTORE"})
//	if err != nil { ... }
//	if err := loader.Load(ctx); err != nil { ... }
//	var cfg ServerConfig
//	_ = loader.Unmarshal(&cfg)
package config

import (
	"context"
	"strings"
	"time"

	"github.com/ceyewan/idstore/clog"
	"github.com/ceyewan/idstore/xerrors"
)

// ErrNotLoaded 在 Load 之前调用 Watch
var ErrNotLoaded = xerrors.New("config: loader not loaded")

// Loader 配置加载器
type Loader interface {
	Load(ctx context.Context) error
	Get(key string) any
	Unmarshal(v any) error
	UnmarshalKey(key string, v any) error
	// Watch 监听 key 的变化，ctx 取消后通道关闭
	Watch(ctx context.Context, key string) (<-chan Event, error)
	// ConfigFileUsed 返回实际读取的配置文件，未找到时为空
	ConfigFileUsed() string
}

// Event 配置变更事件
type Event struct {
	Key       string
	Value     any
	OldValue  any
	Timestamp time.Time
}

// Config 加载器配置
type Config struct {
	Name      string   // 配置文件名（不含扩展名）
	Paths     []string // 搜索路径，默认 [".", "./config"]
	FileType  string   // 默认 yaml
	EnvPrefix string   // 默认 IDSTORE
}

func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "config"
	}
	if len(c.Paths) == 0 {
		c.Paths = []string{".", "./config"}
	}
	if c.FileType == "" {
		c.FileType = "yaml"
	}
	if c.EnvPrefix == "" {
		c.EnvPrefix = "IDSTORE"
	}
	c.EnvPrefix = strings.ToUpper(c.EnvPrefix)
}

// Option 加载器选项
type Option func(*loader)

// WithLogger 注入日志，缺省丢弃
func WithLogger(l clog.Logger) Option {
	return func(ld *loader) {
		if l != nil {
			ld.logger = l.WithNamespace("config")
		}
	}
}

// New 创建加载器，cfg 为 nil 时使用默认值。
func New(cfg *Config, opts ...Option) (Loader, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	c := *cfg
	c.setDefaults()
	return newLoader(&c, opts...), nil
}
