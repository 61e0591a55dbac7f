package shardconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func writeTempConfig(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "shards.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestWatcherPicksUpChange(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)

	w, err := NewWatcher(zaptest.NewLogger(t), path, 10*time.Millisecond)
	require.NoError(t, err)

	reloaded := make(chan *Root, 1)
	w.OnReload(func(old, new *Root) { reloaded <- new })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte(sampleYAML+"\n# bump\n"), 0o644))

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload callback")
	}

	root := w.Current()
	_, ok := root.ShardSetByName("widgets")
	require.True(t, ok)
}

func TestWatcherForceReloadIsIdempotentWithoutChange(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)
	w, err := NewWatcher(zaptest.NewLogger(t), path, time.Hour)
	require.NoError(t, err)

	require.NoError(t, w.ForceReload())
	require.NoError(t, w.ForceReload())
}

func TestNewWatcherRejectsInvalidConfig(t *testing.T) {
	path := writeTempConfig(t, `
ShardSets:
  - ShardSetName: widgets
    DefaultShardId: 1
    Shards:
      - ShardId: 1
      - ShardId: 1
`)
	_, err := NewWatcher(zaptest.NewLogger(t), path, time.Second)
	require.Error(t, err)
}
