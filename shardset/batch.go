package shardset

import (
	"context"
	"sync"

	"go.uber.org/multierr"

	"github.com/shardkit/shardkit/connection"
	"github.com/shardkit/shardkit/shardkey"
)

// BatchFanOut fans a pre-built sequence of statements out to every target
// shard's write connection, awaiting all of them. build is called once per
// target shard so callers can bake that shard's id into each statement's
// parameters. targetIDs nil means every shard in sm.
func BatchFanOut(ctx context.Context, sm *ShardMap, targetIDs []shardkey.ID, build func(shardkey.ID) []connection.Statement) error {
	var targets []*ShardInstance
	if targetIDs == nil {
		targets = sm.All()
	} else {
		targets = make([]*ShardInstance, 0, len(targetIDs))
		for _, id := range targetIDs {
			if inst, ok := sm.Get(id); ok {
				targets = append(targets, inst)
			}
		}
	}
	if len(targets) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(targets))
	for _, shard := range targets {
		shard := shard
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := connection.Batch(ctx, shard.Write, build(shard.ID)); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)

	var combined error
	for err := range errCh {
		combined = multierr.Append(combined, err)
	}
	return combined
}
