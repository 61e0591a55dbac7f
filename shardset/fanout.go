package shardset

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"

	"github.com/shardkit/shardkit/apperrors"
	"github.com/shardkit/shardkit/connection"
	"github.com/shardkit/shardkit/dbparams"
	"github.com/shardkit/shardkit/shardkey"
)

// Handler runs the actual query or command against one shard's connection
// manager. A nil *T with a nil error means "this shard had no data" — the
// fan-out engine distinguishes that from a zero value so ReadAll/ReadFirst
// can tell "no row" from "a row of zero values".
type Handler[T any] func(ctx context.Context, mgr *connection.Manager, params *dbparams.Collection) (*T, error)

// Tagged pairs a fan-out result with the shard that produced it — the
// primitive the ShardKey list helpers use to stamp each value with its
// origin shard.
type Tagged[T any] struct {
	ShardID shardkey.ID
	Value   T
}

type taskResult[T any] struct {
	shardID shardkey.ID
	value   *T
	err     error
}

func targetShards(sm *ShardMap, shardsValues map[shardkey.ID]*dbparams.Collection) []*ShardInstance {
	if shardsValues == nil {
		return sm.All()
	}
	out := make([]*ShardInstance, 0, len(shardsValues))
	for id := range shardsValues {
		if inst, ok := sm.Get(id); ok {
			out = append(out, inst)
		}
	}
	return out
}

// dispatch clones base once per target shard, rewrites the shard-id slot
// (when shardIDOrdinal >= 0) and applies that shard's override collection
// (if any), then runs handler concurrently against every target. The
// returned channel is buffered to len(targets) so a caller that stops
// reading early (ReadFirst after its first success) never blocks a
// still-running goroutine.
func dispatch[T any](
	ctx context.Context,
	targets []*ShardInstance,
	base *dbparams.Collection,
	shardsValues map[shardkey.ID]*dbparams.Collection,
	shardIDOrdinal int,
	useWrite bool,
	handler Handler[T],
) (<-chan taskResult[T], context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan taskResult[T], len(targets))

	var wg sync.WaitGroup
	for _, shard := range targets {
		shard := shard
		wg.Add(1)
		go func() {
			defer wg.Done()
			params := base.Clone()
			if shardIDOrdinal >= 0 {
				_ = params.SetShardID(shardIDOrdinal, shard.ID)
			}
			if ov, ok := shardsValues[shard.ID]; ok {
				_ = params.Overlay(ov)
			}
			mgr := shard.Read
			if useWrite {
				mgr = shard.Write
			}
			value, err := handler(ctx, mgr, params)
			select {
			case ch <- taskResult[T]{shardID: shard.ID, value: value, err: err}:
			case <-ctx.Done():
			}
		}()
	}
	go func() {
		wg.Wait()
		close(ch)
	}()
	return ch, cancel
}

// readAllTagged is the shared core of ReadAll and Write: collect every
// non-nil result, tagged with the shard that produced it. Every error
// encountered is combined (via multierr) into the returned error — the
// first error in that combined error is the one spec.md §7 calls the
// surfaced exception, the rest are the ones it says are "logged".
func readAllTagged[T any](
	ctx context.Context,
	sm *ShardMap,
	base *dbparams.Collection,
	shardsValues map[shardkey.ID]*dbparams.Collection,
	shardIDOrdinal int,
	useWrite bool,
	handler Handler[T],
) ([]Tagged[T], error) {
	operation := "ReadAll"
	if useWrite {
		operation = "Write"
	}
	if err := ctx.Err(); err != nil {
		if sm.observer != nil {
			sm.observer.ObserveFanOut(operation, err, 0)
		}
		return nil, err
	}
	targets := targetShards(sm, shardsValues)
	if len(targets) == 0 {
		if sm.observer != nil {
			sm.observer.ObserveFanOut(operation, nil, 0)
		}
		return nil, nil
	}

	ch, cancel := dispatch(ctx, targets, base, shardsValues, shardIDOrdinal, useWrite, handler)
	defer cancel()

	var results []Tagged[T]
	var combined error
	for tr := range ch {
		if tr.err != nil {
			combined = multierr.Append(combined, tr.err)
			continue
		}
		if tr.value != nil {
			results = append(results, Tagged[T]{ShardID: tr.shardID, Value: *tr.value})
		}
	}
	if sm.observer != nil {
		sm.observer.ObserveFanOut(operation, combined, len(targets))
	}
	if combined != nil {
		return nil, combined
	}
	return results, nil
}

// ReadAllTagged fans handler out to every shard in shardsValues (or every
// shard in sm when shardsValues is nil), collecting every non-nil result
// tagged with its producing shard. Completion order (and therefore result
// order) is unspecified.
func ReadAllTagged[T any](ctx context.Context, sm *ShardMap, base *dbparams.Collection, shardsValues map[shardkey.ID]*dbparams.Collection, shardIDOrdinal int, handler Handler[T]) ([]Tagged[T], error) {
	return readAllTagged(ctx, sm, base, shardsValues, shardIDOrdinal, false, handler)
}

// ReadAll is ReadAllTagged with the shard tag dropped.
func ReadAll[T any](ctx context.Context, sm *ShardMap, base *dbparams.Collection, shardsValues map[shardkey.ID]*dbparams.Collection, shardIDOrdinal int, handler Handler[T]) ([]T, error) {
	tagged, err := ReadAllTagged(ctx, sm, base, shardsValues, shardIDOrdinal, handler)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(tagged))
	for _, t := range tagged {
		out = append(out, t.Value)
	}
	return out, nil
}

// Write runs handler against the write connection manager of every target
// shard; structurally identical to ReadAll otherwise.
func Write[T any](ctx context.Context, sm *ShardMap, base *dbparams.Collection, shardsValues map[shardkey.ID]*dbparams.Collection, shardIDOrdinal int, handler Handler[T]) ([]T, error) {
	tagged, err := readAllTagged(ctx, sm, base, shardsValues, shardIDOrdinal, true, handler)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(tagged))
	for _, t := range tagged {
		out = append(out, t.Value)
	}
	return out, nil
}

// isBenign reports whether an error from one shard task should be ignored
// by ReadFirst rather than aborting the whole fan-out: context.Canceled (the
// task we ourselves cancelled after a sibling won) and an apperrors error of
// kind KindOperationCancelled.
func isBenign(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr.Kind == apperrors.KindOperationCancelled
	}
	return false
}

// ReadFirst awaits tasks as they complete and returns the first non-nil
// result, cancelling every sibling still in flight. A benign error
// (cancellation) is ignored; any other error aborts the fan-out
// immediately — the fail-fast behavior spec.md §9's open question
// resolves explicitly, rather than waiting out every remaining shard.
// Returns (nil, nil) if every shard returns no data.
func ReadFirst[T any](ctx context.Context, sm *ShardMap, base *dbparams.Collection, shardsValues map[shardkey.ID]*dbparams.Collection, shardIDOrdinal int, handler Handler[T]) (*T, error) {
	if err := ctx.Err(); err != nil {
		if sm.observer != nil {
			sm.observer.ObserveFanOut("ReadFirst", err, 0)
		}
		return nil, err
	}
	targets := targetShards(sm, shardsValues)
	if len(targets) == 0 {
		if sm.observer != nil {
			sm.observer.ObserveFanOut("ReadFirst", nil, 0)
		}
		return nil, nil
	}

	ch, cancel := dispatch(ctx, targets, base, shardsValues, shardIDOrdinal, false, handler)
	defer cancel()

	for tr := range ch {
		if tr.err != nil {
			if isBenign(tr.err) {
				continue
			}
			if sm.observer != nil {
				sm.observer.ObserveFanOut("ReadFirst", tr.err, len(targets))
			}
			return nil, tr.err
		}
		if tr.value != nil {
			cancel()
			if sm.observer != nil {
				sm.observer.ObserveFanOut("ReadFirst", nil, len(targets))
				sm.observer.ObserveReadFirstWin(fmt.Sprintf("%d", tr.shardID))
			}
			return tr.value, nil
		}
	}
	if sm.observer != nil {
		sm.observer.ObserveFanOut("ReadFirst", nil, len(targets))
	}
	return nil, nil
}
