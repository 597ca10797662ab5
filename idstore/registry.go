package idstore

import (
	"context"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/ceyewan/idstore/clog"
	"github.com/ceyewan/idstore/connector"
	"github.com/ceyewan/idstore/xerrors"
)

// ========================================
// 后端注册表
// ========================================

// Backend 一种后端的两个构造入口
type Backend struct {
	// FromConnector 基于连接器构造计数器存储。连接器由调用方传入或由 FromDSN 创建
	FromConnector func(conn connector.Connector, cfg *Config, logger clog.Logger) (Store, error)

	// FromDSN 由连接串创建连接器（不必立即连接），创建出的连接器归生成器所有
	FromDSN func(dsn string, opts ...connector.Option) (connector.Connector, error)
}

// Registry 以后端标识（connector.Driver*）为键的后端表，并发安全。
// 不存在包级全局实例，由宿主显式创建并传递
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Backend)}
}

// Register 注册后端，同名后端被覆盖
func (r *Registry) Register(driver string, b Backend) error {
	if driver == "" {
		return xerrors.WithCode(xerrors.Wrap(ErrInvalidInput, "driver is empty"), "driver_empty")
	}
	if b.FromConnector == nil || b.FromDSN == nil {
		return xerrors.WithCode(xerrors.Wrapf(ErrInvalidInput,
			"backend %q: both constructors are required", driver), "backend_incomplete")
	}
	r.mu.Lock()
	r.backends[driver] = b
	r.mu.Unlock()
	return nil
}

// Unregister 移除后端，不存在时无操作
func (r *Registry) Unregister(driver string) {
	r.mu.Lock()
	delete(r.backends, driver)
	r.mu.Unlock()
}

func (r *Registry) IsRegistered(driver string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.backends[driver]
	return ok
}

// Drivers 返回已注册的后端标识，按字母序
func (r *Registry) Drivers() []string {
	r.mu.RLock()
	drivers := make([]string, 0, len(r.backends))
	for d := range r.backends {
		drivers = append(drivers, d)
	}
	r.mu.RUnlock()
	sort.Strings(drivers)
	return drivers
}

func (r *Registry) lookup(driver string) (Backend, error) {
	r.mu.RLock()
	b, ok := r.backends[driver]
	r.mu.RUnlock()
	if !ok {
		err := xerrors.Wrapf(ErrBackendNotRegistered, "driver %q (registered: %s)",
			driver, strings.Join(r.Drivers(), ", "))
		return Backend{}, xerrors.WithCode(err, "backend_not_registered")
	}
	return b, nil
}

// ForConnector 按 conn.Driver() 选择后端，返回借用 conn 的工厂。
// 生成器不会关闭 conn
func (r *Registry) ForConnector(conn connector.Connector, cfg *Config, opts ...Option) (*Factory, error) {
	if isNilConnector(conn) {
		return nil, ErrConnectorNil
	}
	b, err := r.lookup(conn.Driver())
	if err != nil {
		return nil, err
	}
	f, err := newFactory(conn.Driver(), b, cfg, opts)
	if err != nil {
		return nil, err
	}
	f.conn = conn
	return f, nil
}

// isNilConnector 同时识别 nil 接口和包着 nil 指针的接口
func isNilConnector(conn connector.Connector) bool {
	if conn == nil {
		return true
	}
	v := reflect.ValueOf(conn)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// ForDSN 返回按连接串工作的工厂：每个生成器各自建立并拥有一个连接，Close 时关闭
func (r *Registry) ForDSN(driver, dsn string, cfg *Config, opts ...Option) (*Factory, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, xerrors.Wrap(ErrConnectorNil, "connection string is empty")
	}
	b, err := r.lookup(driver)
	if err != nil {
		return nil, err
	}
	f, err := newFactory(driver, b, cfg, opts)
	if err != nil {
		return nil, err
	}
	f.dsn = dsn
	return f, nil
}

// ========================================
// 生成器工厂
// ========================================

// Factory 为某个后端创建生成器，并发安全
type Factory struct {
	driver  string
	backend Backend
	cfg     *Config
	opts    *options
	ins     *instruments

	// 二者恰有其一：conn 为借用的连接器，dsn 用于为每个生成器新建连接器
	conn connector.Connector
	dsn  string
}

func newFactory(driver string, b Backend, cfg *Config, opts []Option) (*Factory, error) {
	c, err := normalize(cfg)
	if err != nil {
		return nil, err
	}
	o := applyOptions(opts)
	ins, err := newInstruments(o.meter)
	if err != nil {
		return nil, err
	}
	return &Factory{driver: driver, backend: b, cfg: c, opts: o, ins: ins}, nil
}

// Driver 工厂对应的后端标识
func (f *Factory) Driver() string { return f.driver }

// Generator 创建使用默认批大小的生成器
func (f *Factory) Generator(table string) (Generator, error) {
	return f.GeneratorWithBatch(table, f.cfg.BatchSize)
}

// GeneratorWithBatch 创建批大小为 size 的生成器
func (f *Factory) GeneratorWithBatch(table string, size int64) (Generator, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	if err := validateBatchSize(size); err != nil {
		return nil, err
	}

	conn, owned, err := f.connector()
	if err != nil {
		return nil, err
	}
	store, err := f.backend.FromConnector(conn, f.cfg, f.opts.logger)
	if err != nil {
		if owned {
			_ = conn.Close()
		}
		return nil, err
	}
	alloc := newAllocator(store, f.cfg, f.opts, f.ins)
	return newGenerator(conn, owned, store, alloc, table, size, f.opts.logger), nil
}

// Current 读取 table 当前的 LastId，不预留任何 ID
func (f *Factory) Current(ctx context.Context, table string) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}
	conn, owned, err := f.connector()
	if err != nil {
		return 0, err
	}
	if owned {
		defer conn.Close()
	}
	if err := conn.Connect(ctx); err != nil {
		return 0, err
	}
	store, err := f.backend.FromConnector(conn, f.cfg, f.opts.logger)
	if err != nil {
		return 0, err
	}
	return store.Current(ctx, table)
}

func (f *Factory) connector() (connector.Connector, bool, error) {
	if f.conn != nil {
		return f.conn, false, nil
	}
	conn, err := f.backend.FromDSN(f.dsn, connector.WithLogger(f.opts.logger), connector.WithMeter(f.opts.meter))
	if err != nil {
		return nil, false, err
	}
	if conn == nil {
		return nil, false, ErrConnectorNil
	}
	return conn, true, nil
}
