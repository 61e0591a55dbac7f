package shardconfig

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReloadCallback is invoked with the previous and newly-loaded Root whenever
// the watched file's contents change. It runs after the new Root (which
// already passed validate) has been swapped in and cannot roll that back.
type ReloadCallback func(old, new *Root)

// Watcher polls a YAML file on disk and reloads it into a Root whenever its
// contents change, detected by SHA-256 hash rather than mtime so that
// rewrites which don't change content (common with ConfigMap projections)
// don't trigger spurious reloads.
type Watcher struct {
	logger   *zap.Logger
	path     string
	interval time.Duration

	mu        sync.RWMutex
	current   *Root
	hash      string
	callbacks []ReloadCallback

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewWatcher loads path once to establish a baseline, then returns a Watcher
// ready to poll it. interval defaults to 10s, matching the teacher config
// package's default check interval.
func NewWatcher(logger *zap.Logger, path string, interval time.Duration) (*Watcher, error) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	root, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	hash, err := hashFile(path)
	if err != nil {
		return nil, err
	}
	return &Watcher{
		logger:   logger,
		path:     path,
		interval: interval,
		current:  root,
		hash:     hash,
		stopCh:   make(chan struct{}),
	}, nil
}

// OnReload registers a callback invoked after every successful reload.
func (w *Watcher) OnReload(cb ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Root {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Run polls the file at the configured interval until ctx is done or Stop
// is called.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("shardconfig watcher started", zap.String("path", w.path), zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			if err := w.checkAndReload(); err != nil {
				w.logger.Error("shardconfig reload check failed", zap.Error(err))
			}
		}
	}
}

// Stop ends a running Run loop. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// ForceReload re-reads the file immediately, bypassing the poll interval.
func (w *Watcher) ForceReload() error {
	return w.checkAndReload()
}

func (w *Watcher) checkAndReload() error {
	newHash, err := hashFile(w.path)
	if err != nil {
		return fmt.Errorf("shardconfig: hash %s: %w", w.path, err)
	}

	w.mu.RLock()
	unchanged := newHash == w.hash
	w.mu.RUnlock()
	if unchanged {
		return nil
	}

	newRoot, err := LoadFile(w.path)
	if err != nil {
		return fmt.Errorf("shardconfig: %s changed but failed to reload: %w", w.path, err)
	}

	w.mu.Lock()
	oldRoot := w.current
	w.current = newRoot
	w.hash = newHash
	callbacks := w.callbacks
	w.mu.Unlock()

	w.logger.Info("shardconfig reloaded", zap.String("path", w.path))
	for _, cb := range callbacks {
		cb(oldRoot, newRoot)
	}
	return nil
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
