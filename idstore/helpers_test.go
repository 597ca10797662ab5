package idstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ceyewan/idstore/clog"
	"github.com/ceyewan/idstore/connector"
	"github.com/ceyewan/idstore/metrics"
	"github.com/ceyewan/idstore/testkit"
)

// ========================================
// 测试替身
// ========================================

// fakeConn 记录 Connect / Close 调用次数的连接器
type fakeConn struct {
	driver     string
	connectErr error
	connects   atomic.Int32
	closes     atomic.Int32
}

func (c *fakeConn) Connect(context.Context) error {
	c.connects.Add(1)
	return c.connectErr
}
func (c *fakeConn) Close() error                      { c.closes.Add(1); return nil }
func (c *fakeConn) HealthCheck(context.Context) error { return nil }
func (c *fakeConn) IsHealthy() bool                   { return true }
func (c *fakeConn) Name() string                      { return "fake" }
func (c *fakeConn) Driver() string                    { return c.driver }

// fakeStore 内存计数器。conflicts > 0 时接下来的若干次尝试报告冲突
type fakeStore struct {
	mu        sync.Mutex
	last      map[string]int64
	conflicts int
	err       error
	attempts  int
	inits     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{last: make(map[string]int64)}
}

func (s *fakeStore) Driver() string { return "fake" }

func (s *fakeStore) Init(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inits++
	return nil
}

func (s *fakeStore) TryAllocate(_ context.Context, table string, size int64) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.err != nil {
		return 0, false, s.err
	}
	if s.conflicts > 0 {
		s.conflicts--
		return 0, false, nil
	}
	first := s.last[table] + 1
	s.last[table] += size
	return first, true, nil
}

func (s *fakeStore) Current(_ context.Context, table string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last[table], nil
}

func (s *fakeStore) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// fakeBackend 始终返回同一个 store；FromDSN 创建的连接器记录在 dialed 中
func fakeBackend(store *fakeStore, dialed *[]*fakeConn) Backend {
	return Backend{
		FromConnector: func(connector.Connector, *Config, clog.Logger) (Store, error) {
			return store, nil
		},
		FromDSN: func(string, ...connector.Option) (connector.Connector, error) {
			c := &fakeConn{driver: "fake"}
			if dialed != nil {
				*dialed = append(*dialed, c)
			}
			return c, nil
		},
	}
}

func newFakeFactory(t *testing.T, store *fakeStore, cfg *Config, opts ...Option) (*Factory, *fakeConn) {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.Register("fake", fakeBackend(store, nil)))
	conn := &fakeConn{driver: "fake"}
	f, err := reg.ForConnector(conn, cfg, opts...)
	require.NoError(t, err)
	return f, conn
}

// ========================================
// 后端无关的性质检查
// ========================================

const timeout = 30 * time.Second

// newTestFactory 为一个后端返回新的工厂。每次调用应当使用独立的连接，
// 以模拟多个进程共享同一存储
type newTestFactory func(t *testing.T) *Factory

func mustGenerator(t *testing.T, f *Factory, table string, size int64) Generator {
	t.Helper()
	gen, err := f.GeneratorWithBatch(table, size)
	require.NoError(t, err)
	t.Cleanup(func() { _ = gen.Close() })
	return gen
}

func nextN(t *testing.T, ctx context.Context, gen Generator, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		id, err := gen.Next(ctx)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func runStoreProperties(t *testing.T, newFactory newTestFactory) {
	t.Run("interleaving", func(t *testing.T) {
		ctx := testkit.NewContext(t, timeout)
		f := newFactory(t)
		table := testkit.NewTableName("People")

		a := mustGenerator(t, f, table, 1)
		b := mustGenerator(t, f, table, 3)
		require.NoError(t, a.Init(ctx))

		var got []int64
		for _, gen := range []Generator{a, b, a, b, b, b} {
			id, err := gen.Next(ctx)
			require.NoError(t, err)
			got = append(got, id)
		}
		assert.Equal(t, []int64{1, 2, 5, 3, 4, 6}, got)

		last, err := f.Current(ctx, table)
		require.NoError(t, err)
		assert.Equal(t, int64(8), last)
	})

	t.Run("batch locality", func(t *testing.T) {
		ctx := testkit.NewContext(t, timeout)
		f := newFactory(t)
		table := testkit.NewTableName("Orders")

		gen := mustGenerator(t, f, table, 10)
		require.NoError(t, gen.Init(ctx))

		ids := nextN(t, ctx, gen, 20)
		for i, id := range ids {
			assert.Equal(t, int64(i+1), id)
		}
		last, err := f.Current(ctx, table)
		require.NoError(t, err)
		assert.Equal(t, int64(20), last)
	})

	t.Run("resume after existing data", func(t *testing.T) {
		ctx := testkit.NewContext(t, timeout)
		f := newFactory(t)
		table := testkit.NewTableName("Invoices")

		seed := mustGenerator(t, f, table, 41)
		require.NoError(t, seed.Init(ctx))
		_, err := seed.Next(ctx)
		require.NoError(t, err)
		require.NoError(t, seed.Close())

		gen := mustGenerator(t, f, table, 5)
		id, err := gen.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
	})

	t.Run("init is idempotent", func(t *testing.T) {
		ctx := testkit.NewContext(t, timeout)
		f := newFactory(t)
		table := testkit.NewTableName("Init")
		gen := mustGenerator(t, f, table, 2)

		for i := 0; i < 3; i++ {
			require.NoError(t, gen.Init(ctx))
		}
		ids := nextN(t, ctx, gen, 3)
		assert.Equal(t, []int64{1, 2, 3}, ids)
		require.NoError(t, gen.Init(ctx))
	})

	t.Run("concurrent handles are unique and gapless", func(t *testing.T) {
		ctx := testkit.NewContext(t, timeout)
		table := testkit.NewTableName("Shared")
		probe := mustGenerator(t, newFactory(t), table, 1)
		require.NoError(t, probe.Init(ctx))

		const perHandle = 20
		sizes := []int64{1, 2, 3, 5, 7, 1, 4, 6}

		var (
			mu  sync.Mutex
			all []int64
		)
		g, gctx := errgroup.WithContext(ctx)
		for _, size := range sizes {
			gen := mustGenerator(t, newFactory(t), table, size)
			g.Go(func() error {
				ids := make([]int64, 0, perHandle)
				for i := 0; i < perHandle; i++ {
					id, err := gen.Next(gctx)
					if err != nil {
						return err
					}
					ids = append(ids, id)
				}
				mu.Lock()
				all = append(all, ids...)
				mu.Unlock()
				return nil
			})
		}
		require.NoError(t, g.Wait())

		assertUnique(t, all)

		var reserved int64
		for _, size := range sizes {
			batches := (perHandle + size - 1) / size
			reserved += batches * size
		}
		last, err := probe.(*generator).store.Current(ctx, table)
		require.NoError(t, err)
		assert.Equal(t, reserved, last, "LastId 应等于所有预留批大小之和")
	})

	t.Run("first allocation race", func(t *testing.T) {
		ctx := testkit.NewContext(t, timeout)
		table := testkit.NewTableName("Fresh")
		probe := mustGenerator(t, newFactory(t), table, 1)
		require.NoError(t, probe.Init(ctx))

		const handles, size = 6, 5
		gens := make([]Generator, handles)
		for i := range gens {
			gens[i] = mustGenerator(t, newFactory(t), table, size)
		}

		firsts := make([]int64, handles)
		g, gctx := errgroup.WithContext(ctx)
		for i, gen := range gens {
			g.Go(func() error {
				id, err := gen.Next(gctx)
				firsts[i] = id
				return err
			})
		}
		require.NoError(t, g.Wait())

		sort.Slice(firsts, func(i, j int) bool { return firsts[i] < firsts[j] })
		for i, first := range firsts {
			assert.Equal(t, int64(i*size+1), first, "各句柄的区间应互不重叠且首尾相接")
		}
		last, err := probe.(*generator).store.Current(ctx, table)
		require.NoError(t, err)
		assert.Equal(t, int64(handles*size), last)
	})
}

func assertUnique(t *testing.T, ids []int64) {
	t.Helper()
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = struct{}{}
	}
}

func scrapeMetrics(t *testing.T, m metrics.Meter) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
