// Command example wires shardconfig, connection and shardset together into
// the smallest useful program: load a shard map from YAML, fan a read out
// across every shard, and print what came back. It has no HTTP surface —
// adminapi (see cmd/router) is entirely optional.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/shardkit/shardkit/connection"
	"github.com/shardkit/shardkit/dbparams"
	"github.com/shardkit/shardkit/logging"
	"github.com/shardkit/shardkit/shardconfig"
	"github.com/shardkit/shardkit/shardkey"
	"github.com/shardkit/shardkit/shardset"
)

func main() {
	configPath := os.Getenv("SHARDKIT_CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/shards.yaml"
	}

	logger, err := logging.NewLogger(logging.Config{Format: logging.FormatConsole})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	root, err := shardconfig.LoadFile(configPath)
	if err != nil {
		logger.Fatal("failed to load shard configuration", zap.Error(err))
	}

	vault := shardconfig.EnvVault{Prefix: "SHARDKIT_CRED_"}
	resolved, err := root.Resolve("default")
	if err != nil {
		logger.Fatal("unknown shard set", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	instances := make([]*shardset.ShardInstance, 0, len(resolved))
	for _, shard := range resolved {
		cred, err := vault.Resolve(shard.Read.SecurityKey)
		if err != nil {
			logger.Fatal("resolve credential", zap.Uint16("shard_id", shard.ShardId), zap.Error(err))
		}
		dsn := fmt.Sprintf("host=%s dbname=%s user=%s password=%s sslmode=require", shard.Read.Server, shard.Read.Database, cred.Username, cred.Password)

		mgr, err := connection.Open(ctx, "postgres", dsn, connection.NoopPolicy{}, connection.NoopPolicy{})
		if err != nil {
			logger.Fatal("open shard", zap.Uint16("shard_id", shard.ShardId), zap.Error(err))
		}
		instances = append(instances, &shardset.ShardInstance{ID: shardkey.ID(shard.ShardId), Read: mgr, Write: mgr})
	}
	shardMap := shardset.NewShardMap(instances...)
	if len(resolved) > 0 {
		shardMap.SetDefaultID(shardkey.ID(resolved[0].DefaultShardId))
	}

	ctx = logging.WithFanOut(ctx, uuid.New().String(), "ReadAllWidgetNames")

	base := dbparams.New()
	names, err := shardset.ReadAll[[]string](ctx, shardMap, base, nil, -1, func(ctx context.Context, mgr *connection.Manager, params *dbparams.Collection) (*[]string, error) {
		logger.WithContext(ctx).Debug("querying shard")
		rows, err := connection.List[string](ctx, mgr, "SELECT name FROM widgets", params, true)
		if err != nil {
			return nil, err
		}
		return &rows, nil
	})
	if err != nil {
		logger.Fatal("fan-out read failed", zap.Error(err))
	}

	for _, perShard := range names {
		fmt.Println(perShard)
	}
}
