package connector

import (
	"context"
	"sync"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ceyewan/idstore/xerrors"
)

type etcdConnector struct {
	*base
	cfg *EtcdConfig

	mu     sync.RWMutex
	client *clientv3.Client
}

// NewEtcd 创建 Etcd 连接器，Connect 时创建客户端并校验可达性。
func NewEtcd(cfg *EtcdConfig, opts ...Option) (EtcdConnector, error) {
	if cfg == nil {
		return nil, xerrors.Wrap(ErrConfig, "etcd config is nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &etcdConnector{base: newBase(DriverEtcd, cfg.Name, applyOptions(opts)), cfg: cfg}, nil
}

func (c *etcdConnector) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return nil
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   c.cfg.Endpoints,
		DialTimeout: c.cfg.DialTimeout,
		Username:    c.cfg.Username,
		Password:    c.cfg.Password,
		Context:     context.WithoutCancel(ctx),
	})
	if err != nil {
		c.connectFailed(ctx, err)
		return xerrors.Wrapf(ErrConnection, "etcd connector[%s]: %v", c.name, err)
	}

	if err := c.ping(ctx, client); err != nil {
		_ = client.Close()
		c.connectFailed(ctx, err)
		return xerrors.Wrapf(ErrConnection, "etcd connector[%s]: %v", c.name, err)
	}

	c.client = client
	c.connected(ctx)
	return nil
}

// ping 对任意 key 发起线性一致读，不存在的 key 返回空结果而非错误
func (c *etcdConnector) ping(ctx context.Context, client *clientv3.Client) error {
	pctx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()
	_, err := client.Get(pctx, "/idstore/.health", clientv3.WithCountOnly())
	return err
}

func (c *etcdConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	c.closed()
	return err
}

func (c *etcdConnector) HealthCheck(ctx context.Context) error {
	client := c.GetClient()
	if client == nil {
		c.healthy.Store(false)
		return xerrors.Wrapf(ErrClientNil, "etcd connector[%s]", c.name)
	}
	if err := c.ping(ctx, client); err != nil {
		c.healthy.Store(false)
		return xerrors.Wrapf(ErrHealthCheck, "etcd connector[%s]: %v", c.name, err)
	}
	c.healthy.Store(true)
	return nil
}

func (c *etcdConnector) GetClient() *clientv3.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}
