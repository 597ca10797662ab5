package metrics

// Config 指标配置
//
//	metrics:
//	  enabled: true
//	  service_name: "idserver"
//	  version: "v0.1.0"
type Config struct {
	// Enabled 为 false 时 New 返回 noop Meter
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	Version     string `mapstructure:"version" yaml:"version"`
}

func (c *Config) setDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "idstore"
	}
	if c.Version == "" {
		c.Version = "dev"
	}
}
