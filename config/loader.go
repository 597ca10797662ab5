package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ceyewan/idstore/clog"
	"github.com/ceyewan/idstore/xerrors"
)

type loader struct {
	v      *viper.Viper
	cfg    *Config
	logger clog.Logger

	mu      sync.Mutex
	loaded  bool
	watches map[string][]chan Event
	last    map[string]any
}

func newLoader(cfg *Config, opts ...Option) *loader {
	l := &loader{
		v:       viper.New(),
		cfg:     cfg,
		logger:  clog.Discard(),
		watches: make(map[string][]chan Event),
		last:    make(map[string]any),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *loader) Load(ctx context.Context) error {
	l.v.SetConfigName(l.cfg.Name)
	l.v.SetConfigType(l.cfg.FileType)
	for _, p := range l.cfg.Paths {
		l.v.AddConfigPath(p)
	}

	l.v.SetEnvPrefix(l.cfg.EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	l.loadDotEnv()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !xerrors.As(err, &notFound) {
			return xerrors.Wrapf(err, "read config %s", l.cfg.Name)
		}
		l.logger.Debug("no config file found, using env and defaults", clog.String("name", l.cfg.Name))
	}
	if err := l.mergeEnvironment(); err != nil {
		return err
	}

	l.mu.Lock()
	l.loaded = true
	l.mu.Unlock()

	if l.v.ConfigFileUsed() != "" {
		l.v.OnConfigChange(func(e fsnotify.Event) {
			l.logger.Info("config file changed", clog.String("file", e.Name), clog.String("op", e.Op.String()))
			if err := l.mergeEnvironment(); err != nil {
				l.logger.Warn("reload environment config failed", clog.Error(err))
			}
			l.notify()
		})
		l.v.WatchConfig()
	}
	return nil
}

// loadDotEnv 依次尝试工作目录和各搜索路径下的 .env，已存在的环境变量不会被覆盖。
func (l *loader) loadDotEnv() {
	candidates := []string{".env"}
	for _, p := range l.cfg.Paths {
		candidates = append(candidates, filepath.Join(p, ".env"))
	}
	for _, f := range candidates {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			l.logger.Warn("load .env failed", clog.String("file", f), clog.Error(err))
		}
	}
}

func (l *loader) mergeEnvironment() error {
	env := os.Getenv(l.cfg.EnvPrefix + "_ENV")
	if env == "" {
		return nil
	}
	name := fmt.Sprintf("%s.%s", l.cfg.Name, env)
	l.v.SetConfigName(name)
	defer l.v.SetConfigName(l.cfg.Name)

	if err := l.v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !xerrors.As(err, &notFound) {
			return xerrors.Wrapf(err, "merge config %s", name)
		}
		return nil
	}
	l.logger.Info("environment config merged", clog.String("env", env))
	return nil
}

func (l *loader) Get(key string) any { return l.v.Get(key) }

func (l *loader) Unmarshal(v any) error { return l.v.Unmarshal(v) }

func (l *loader) UnmarshalKey(key string, v any) error { return l.v.UnmarshalKey(key, v) }

func (l *loader) ConfigFileUsed() string { return l.v.ConfigFileUsed() }

func (l *loader) Watch(ctx context.Context, key string) (<-chan Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.loaded {
		return nil, ErrNotLoaded
	}

	ch := make(chan Event, 8)
	l.watches[key] = append(l.watches[key], ch)
	if _, ok := l.last[key]; !ok {
		l.last[key] = l.v.Get(key)
	}

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		defer l.mu.Unlock()
		chans := l.watches[key]
		for i, c := range chans {
			if c == ch {
				l.watches[key] = append(chans[:i], chans[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

func (l *loader) notify() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, chans := range l.watches {
		cur := l.v.Get(key)
		old := l.last[key]
		if reflect.DeepEqual(cur, old) {
			continue
		}
		l.last[key] = cur
		ev := Event{Key: key, Value: cur, OldValue: old, Timestamp: time.Now()}
		for _, ch := range chans {
			select {
			case ch <- ev:
			default:
				l.logger.Warn("watch channel full, event dropped", clog.String("key", key))
			}
		}
	}
}
