// Package clog 是 idstore 的结构化日志组件，基于标准库 slog。
//
// 组件默认不输出任何日志：idstore 的各个构造函数在未注入 Logger 时使用
// Discard()。宿主程序通过 WithLogger 注入 clog.New 创建的实例后，
// 分配过程的 Debug 日志与连接器的生命周期日志才会出现。
//
// 基本使用：
//
//	logger, _ := clog.New(&clog.Config{Level: "debug", Format: "json"},
//	    clog.WithNamespace("idserver"),
//	    clog.WithTraceContext(),
//	)
//	logger.Info("batch reserved", clog.String("table", "People"), clog.Int64("first", 1))
package clog

import "github.com/ceyewan/idstore/xerrors"

// New 创建 Logger。config 为 nil 时使用 NewDefaultConfig()。
func New(config *Config, opts ...Option) (Logger, error) {
	if config == nil {
		config = NewDefaultConfig()
	}
	if err := config.validate(); err != nil {
		return nil, xerrors.Wrap(err, "invalid log config")
	}

	o := applyOptions(opts...)
	handler, err := newHandler(config, o)
	if err != nil {
		return nil, err
	}
	return &logger{handler: handler, opts: o}, nil
}

// Must 与 New 相同，出错时 panic。仅用于 main 函数等初始化阶段。
func Must(config *Config, opts ...Option) Logger {
	l, err := New(config, opts...)
	if err != nil {
		panic(err)
	}
	return l
}
