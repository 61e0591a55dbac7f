package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/shardkit/shardkit/shardconfig"
)

// main demonstrates sourcing the shard configuration from etcd on a sparse
// cron schedule rather than a file watcher — useful when a remote API is
// better polled on a schedule ("every five minutes") than hammered every
// few seconds the way Watcher does for a local file.
func main() {
	endpoints := strings.Split(os.Getenv("SHARDKIT_ETCD_ENDPOINTS"), ",")
	key := os.Getenv("SHARDKIT_ETCD_KEY")
	if key == "" {
		key = shardconfig.EtcdKey
	}
	cronSpec := os.Getenv("SHARDKIT_REFRESH_CRON")
	if cronSpec == "" {
		cronSpec = "0 */5 * * * *"
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	source, err := shardconfig.NewEtcdSource(logger, endpoints, key)
	if err != nil {
		logger.Fatal("failed to connect to etcd", zap.Error(err))
	}
	defer source.Close()

	scheduler := shardconfig.NewScheduler(logger, source.Load)
	if err := scheduler.AddSchedule(cronSpec); err != nil {
		logger.Fatal("invalid refresh schedule", zap.Error(err))
	}

	initial, err := source.Load(context.Background())
	if err != nil {
		logger.Fatal("failed to load initial shard configuration", zap.Error(err))
	}
	logger.Info("loaded initial shard configuration", zap.Int("shard_sets", len(initial.ShardSets)))

	scheduler.Start()
	defer scheduler.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}
