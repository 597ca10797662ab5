package trace

import "github.com/ceyewan/idstore/xerrors"

// ErrInvalidConfig 链路追踪配置不合法
var ErrInvalidConfig = xerrors.New("trace: invalid config")

// Config 链路追踪配置
//
//	trace:
//	  service_name: "idserver"
//	  endpoint: "localhost:4317"   # 为空时只在本地生成 TraceID，不导出
//	  sampler: 1.0
type Config struct {
	ServiceName string  `mapstructure:"service_name" yaml:"service_name"`
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint"`
	Sampler     float64 `mapstructure:"sampler" yaml:"sampler"`
	Batcher     string  `mapstructure:"batcher" yaml:"batcher"` // batch|simple
	Insecure    bool    `mapstructure:"insecure" yaml:"insecure"`
}

func (c *Config) setDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "idstore"
	}
	if c.Sampler == 0 {
		c.Sampler = 1.0
	}
	if c.Batcher == "" {
		c.Batcher = "batch"
	}
}

func (c *Config) validate() error {
	if c.Sampler < 0 || c.Sampler > 1 {
		return xerrors.Wrapf(ErrInvalidConfig, "sampler must be between 0 and 1, got %v", c.Sampler)
	}
	if c.Batcher != "batch" && c.Batcher != "simple" {
		return xerrors.Wrapf(ErrInvalidConfig, "batcher must be \"batch\" or \"simple\", got %q", c.Batcher)
	}
	return nil
}
