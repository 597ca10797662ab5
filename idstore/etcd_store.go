package idstore

import (
	"context"
	"strconv"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/ceyewan/idstore/clog"
	"github.com/ceyewan/idstore/connector"
	"github.com/ceyewan/idstore/xerrors"
)

// etcdStore 每个逻辑表一个键 /<prefix>/<table>，值为十进制 LastId。
// 以 ModRevision 比较实现 CAS：键不存在时 ModRevision 为 0，首次分配同样适用
type etcdStore struct {
	conn   connector.EtcdConnector
	prefix string
	logger clog.Logger
}

func newEtcdStore(conn connector.Connector, cfg *Config, logger clog.Logger) (Store, error) {
	ec, ok := conn.(connector.EtcdConnector)
	if !ok {
		return nil, xerrors.WithCode(xerrors.Wrapf(ErrInvalidInput,
			"etcd backend needs an etcd connector, got %T", conn), "connector_type_mismatch")
	}
	return &etcdStore{conn: ec, prefix: cfg.KeyPrefix, logger: logger}, nil
}

func (s *etcdStore) Driver() string { return connector.DriverEtcd }

func (s *etcdStore) key(table string) string {
	return "/" + s.prefix + "/" + table
}

func (s *etcdStore) client() (*clientv3.Client, error) {
	c := s.conn.GetClient()
	if c == nil {
		return nil, xerrors.Wrapf(connector.ErrClientNil, "etcd connector[%s]", s.conn.Name())
	}
	return c, nil
}

func (s *etcdStore) Init(ctx context.Context) error {
	_, err := s.client()
	return err
}

// read 返回 LastId 与 ModRevision
func (s *etcdStore) read(ctx context.Context, c *clientv3.Client, key string) (int64, int64, error) {
	resp, err := c.Get(ctx, key)
	if err != nil {
		return 0, 0, err
	}
	if len(resp.Kvs) == 0 {
		return 0, 0, nil
	}
	kv := resp.Kvs[0]
	v, err := strconv.ParseInt(string(kv.Value), 10, 64)
	if err != nil {
		return 0, 0, xerrors.Wrapf(err, "etcd key %s", key)
	}
	return v, kv.ModRevision, nil
}

func (s *etcdStore) Current(ctx context.Context, table string) (int64, error) {
	c, err := s.client()
	if err != nil {
		return 0, err
	}
	v, _, err := s.read(ctx, c, s.key(table))
	return v, err
}

func (s *etcdStore) TryAllocate(ctx context.Context, table string, size int64) (int64, bool, error) {
	c, err := s.client()
	if err != nil {
		return 0, false, err
	}
	key := s.key(table)

	actual, rev, err := s.read(ctx, c, key)
	if err != nil {
		return 0, false, err
	}
	if err := checkHeadroom(table, actual, size); err != nil {
		return 0, false, err
	}
	expected := actual + size

	resp, err := c.Txn(ctx).
		If(clientv3.Compare(clientv3.ModRevision(key), "=", rev)).
		Then(clientv3.OpPut(key, strconv.FormatInt(expected, 10)), clientv3.OpGet(key)).
		Commit()
	if err != nil {
		return 0, false, err
	}
	if !resp.Succeeded {
		s.logger.Debug("revision changed, retrying", clog.String("table", table), clog.Int64("revision", rev))
		return 0, false, nil
	}

	kvs := resp.Responses[1].GetResponseRange().Kvs
	if len(kvs) == 0 || string(kvs[0].Value) != strconv.FormatInt(expected, 10) {
		return 0, false, nil
	}
	return actual + 1, true, nil
}
