package idstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/idstore/clog"
	"github.com/ceyewan/idstore/connector"
	"github.com/ceyewan/idstore/xerrors"
)

// redisStore 每个逻辑表一个字符串键 <prefix>:<table>，值为 LastId。
// 通过 WATCH/MULTI/EXEC 实现乐观事务，键被并发修改时 EXEC 失败
type redisStore struct {
	conn   connector.RedisConnector
	prefix string
	logger clog.Logger
}

func newRedisStore(conn connector.Connector, cfg *Config, logger clog.Logger) (Store, error) {
	rc, ok := conn.(connector.RedisConnector)
	if !ok {
		return nil, xerrors.WithCode(xerrors.Wrapf(ErrInvalidInput,
			"redis backend needs a redis connector, got %T", conn), "connector_type_mismatch")
	}
	return &redisStore{conn: rc, prefix: cfg.KeyPrefix, logger: logger}, nil
}

func (s *redisStore) Driver() string { return connector.DriverRedis }

func (s *redisStore) key(table string) string {
	return s.prefix + ":" + table
}

func (s *redisStore) client() (*redis.Client, error) {
	c := s.conn.GetClient()
	if c == nil {
		return nil, xerrors.Wrapf(connector.ErrClientNil, "redis connector[%s]", s.conn.Name())
	}
	return c, nil
}

// Init Redis 无需建表
func (s *redisStore) Init(ctx context.Context) error {
	_, err := s.client()
	return err
}

func (s *redisStore) Current(ctx context.Context, table string) (int64, error) {
	c, err := s.client()
	if err != nil {
		return 0, err
	}
	return getLastID(ctx, c, s.key(table))
}

func getLastID(ctx context.Context, c redis.Cmdable, key string) (int64, error) {
	v, err := c.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (s *redisStore) TryAllocate(ctx context.Context, table string, size int64) (int64, bool, error) {
	c, err := s.client()
	if err != nil {
		return 0, false, err
	}
	key := s.key(table)

	var actual int64
	var verified bool
	err = c.Watch(ctx, func(tx *redis.Tx) error {
		var err error
		actual, err = getLastID(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := checkHeadroom(table, actual, size); err != nil {
			return err
		}
		expected := actual + size

		var post *redis.StringCmd
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if actual == 0 {
				pipe.Del(ctx, key)
				pipe.Set(ctx, key, size, 0)
			} else {
				pipe.IncrBy(ctx, key, size)
			}
			post = pipe.Get(ctx, key)
			return nil
		})
		if err != nil {
			return err
		}
		got, err := post.Int64()
		if err != nil {
			return err
		}
		verified = got == expected
		return nil
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		s.logger.Debug("watched key changed, retrying", clog.String("table", table))
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if !verified {
		return 0, false, nil
	}
	return actual + 1, true, nil
}
