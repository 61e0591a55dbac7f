package adminapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shardkit/shardkit/shardset"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServerServesHealthzWithoutAuth(t *testing.T) {
	sm := shardset.NewShardMap(&shardset.ShardInstance{ID: 1})
	port := freePort(t)
	srv := NewServer(Config{Host: "127.0.0.1", Port: port, JWTSecret: "test-secret"}, sm, nil, zaptest.NewLogger(t))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	waitForServer(t, port)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/healthz", port))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerRejectsUnauthenticatedShardList(t *testing.T) {
	sm := shardset.NewShardMap(&shardset.ShardInstance{ID: 1})
	port := freePort(t)
	srv := NewServer(Config{Host: "127.0.0.1", Port: port, JWTSecret: "test-secret"}, sm, nil, zaptest.NewLogger(t))

	go func() { _ = srv.ListenAndServe() }()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	waitForServer(t, port)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/v1/shards", port))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServerShutdownStopsAcceptingConnections(t *testing.T) {
	sm := shardset.NewShardMap()
	port := freePort(t)
	srv := NewServer(Config{Host: "127.0.0.1", Port: port, JWTSecret: "test-secret"}, sm, nil, zaptest.NewLogger(t))

	go func() { _ = srv.ListenAndServe() }()
	waitForServer(t, port)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	_, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/healthz", port))
	require.Error(t, err)
}

func waitForServer(t *testing.T, port int) {
	t.Helper()
	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 100*time.Millisecond)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)
}
