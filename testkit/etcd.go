package testkit

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ceyewan/idstore/connector"
)

// EtcdEndpoints 返回测试用 etcd 地址，IDSTORE_TEST_ETCD 可覆盖（逗号分隔），默认 localhost:2379。
func EtcdEndpoints() []string {
	if v := os.Getenv("IDSTORE_TEST_ETCD"); v != "" {
		return strings.Split(v, ",")
	}
	return []string{"localhost:2379"}
}

// NewEtcdConnector 连接本地 etcd；不可达时跳过测试。
func NewEtcdConnector(t *testing.T) connector.EtcdConnector {
	t.Helper()
	conn, err := connector.NewEtcd(&connector.EtcdConfig{
		Name:        "test-etcd",
		Endpoints:   EtcdEndpoints(),
		DialTimeout: 3 * time.Second,
	}, connector.WithLogger(NewLogger()))
	if err != nil {
		t.Fatalf("create etcd connector: %v", err)
	}
	if err := conn.Connect(context.Background()); err != nil {
		t.Skipf("etcd not reachable at %v: %v", EtcdEndpoints(), err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
