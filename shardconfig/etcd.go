package shardconfig

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

// EtcdKey is the default key under which the whole configuration document is
// stored as a single YAML blob.
const EtcdKey = "/shardconfig/root"

// EtcdSource loads and watches a configuration document stored as a single
// YAML value in etcd, as an alternative to NewWatcher's local-file polling.
type EtcdSource struct {
	client *clientv3.Client
	logger *zap.Logger
	key    string
}

// NewEtcdSource dials endpoints and returns a source reading key (EtcdKey if
// empty).
func NewEtcdSource(logger *zap.Logger, endpoints []string, key string) (*EtcdSource, error) {
	if key == "" {
		key = EtcdKey
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("shardconfig: connect etcd: %w", err)
	}
	return &EtcdSource{client: client, logger: logger, key: key}, nil
}

// Close releases the underlying etcd client connection.
func (s *EtcdSource) Close() error {
	return s.client.Close()
}

// Load fetches and parses the current document.
func (s *EtcdSource) Load(ctx context.Context) (*Root, error) {
	resp, err := s.client.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("shardconfig: etcd get %s: %w", s.key, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("shardconfig: key %s not found in etcd", s.key)
	}
	return Load(resp.Kvs[0].Value)
}

// Store marshals nothing itself — callers write the YAML document they
// already have, keeping the schema's own (de)serialization in one place.
func (s *EtcdSource) Store(ctx context.Context, yamlDoc []byte) error {
	_, err := s.client.Put(ctx, s.key, string(yamlDoc))
	if err != nil {
		return fmt.Errorf("shardconfig: etcd put %s: %w", s.key, err)
	}
	return nil
}

// Watch streams a freshly-parsed Root every time the key changes, until ctx
// is done. Parse failures are logged and skipped rather than closing the
// channel, so one bad write doesn't kill the watch.
func (s *EtcdSource) Watch(ctx context.Context) <-chan *Root {
	out := make(chan *Root, 1)

	go func() {
		defer close(out)
		watchChan := s.client.Watch(ctx, s.key)
		for resp := range watchChan {
			for _, ev := range resp.Events {
				if ev.Type != clientv3.EventTypePut {
					continue
				}
				root, err := Load(ev.Kv.Value)
				if err != nil {
					s.logger.Warn("shardconfig: skipping invalid etcd update", zap.Error(err))
					continue
				}
				select {
				case out <- root:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
