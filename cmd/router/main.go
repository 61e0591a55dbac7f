package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/shardkit/shardkit/adminapi"
	"github.com/shardkit/shardkit/connection"
	"github.com/shardkit/shardkit/logging"
	"github.com/shardkit/shardkit/shardconfig"
	"github.com/shardkit/shardkit/shardkey"
	"github.com/shardkit/shardkit/shardmetrics"
	"github.com/shardkit/shardkit/shardset"
)

// @title shardkit admin API
// @version 1.0
// @description Read-only operator surface over a client-side sharded-database access library.
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8081
// @BasePath /
func main() {
	configPath := os.Getenv("SHARDKIT_CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/shards.yaml"
	}
	shardSetName := os.Getenv("SHARDKIT_SHARD_SET")
	if shardSetName == "" {
		shardSetName = "default"
	}

	driverName := os.Getenv("SHARDKIT_DRIVER")
	if driverName == "" {
		driverName = "postgres"
	}

	logger, err := logging.NewLogger(logging.Config{})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	watcher, err := shardconfig.NewWatcher(logger.Logger, configPath, 30*time.Second)
	if err != nil {
		logger.Fatal("failed to load shard configuration", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	metrics := shardmetrics.New(registry)

	vault := shardconfig.EnvVault{Prefix: "SHARDKIT_CRED_"}

	shardMap, err := buildShardMap(context.Background(), watcher.Current(), shardSetName, driverName, vault, metrics)
	if err != nil {
		logger.Fatal("failed to build shard map", zap.Error(err))
	}
	shardMap.SetObserver(metrics)

	watcher.OnReload(func(old, updated *shardconfig.Root) {
		logger.Info("shard configuration changed, rebuild the shard map and swap it in atomically before serving new calls")
	})

	watchCtx, cancelWatch := context.WithCancel(context.Background())
	go watcher.Run(watchCtx)
	defer cancelWatch()

	adminCfg := adminapi.Config{
		Host:      os.Getenv("SHARDKIT_ADMIN_HOST"),
		Port:      8081,
		JWTSecret: os.Getenv("SHARDKIT_ADMIN_JWT_SECRET"),
	}
	if adminCfg.Host == "" {
		adminCfg.Host = "0.0.0.0"
	}
	if adminCfg.JWTSecret == "" {
		logger.Fatal("SHARDKIT_ADMIN_JWT_SECRET must be set")
	}

	srv := adminapi.NewServer(adminCfg, shardMap, shardMap, logger.Logger)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("admin server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	watcher.Stop()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("admin server shutdown error", zap.Error(err))
	}
}

// buildShardMap resolves shardSetName out of root and opens one connection
// pool per shard, sharing read and write policies built from the same
// breaker/backoff settings across every shard.
func buildShardMap(ctx context.Context, root *shardconfig.Root, shardSetName, driverName string, vault shardconfig.Vault, metrics *shardmetrics.Registry) (*shardset.ShardMap, error) {
	resolved, err := root.Resolve(shardSetName)
	if err != nil {
		return nil, err
	}

	instances := make([]*shardset.ShardInstance, 0, len(resolved))
	for _, shard := range resolved {
		readMgr, err := openManager(ctx, driverName, shard.Read, vault, shard.ShardId, "read", metrics)
		if err != nil {
			return nil, fmt.Errorf("shard %d: open read pool: %w", shard.ShardId, err)
		}
		writeMgr, err := openManager(ctx, driverName, shard.Write, vault, shard.ShardId, "write", metrics)
		if err != nil {
			return nil, fmt.Errorf("shard %d: open write pool: %w", shard.ShardId, err)
		}
		instances = append(instances, &shardset.ShardInstance{
			ID:    shardkey.ID(shard.ShardId),
			Read:  readMgr,
			Write: writeMgr,
		})
	}
	shardMap := shardset.NewShardMap(instances...)
	if len(resolved) > 0 {
		shardMap.SetDefaultID(shardkey.ID(resolved[0].DefaultShardId))
	}
	return shardMap, nil
}

// dsnFor builds a driver-appropriate connection string; lib/pq and
// go-sql-driver/mysql disagree on DSN syntax even though both speak
// database/sql.
func dsnFor(driverName string, cfg shardconfig.ConnectionConfig, cred shardconfig.Credential) string {
	if driverName == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s)/%s", cred.Username, cred.Password, cfg.Server, cfg.Database)
	}
	return fmt.Sprintf("host=%s dbname=%s user=%s password=%s sslmode=require", cfg.Server, cfg.Database, cred.Username, cred.Password)
}

func openManager(ctx context.Context, driverName string, cfg shardconfig.ConnectionConfig, vault shardconfig.Vault, shardID uint16, role string, metrics *shardmetrics.Registry) (*connection.Manager, error) {
	cred, err := vault.Resolve(cfg.SecurityKey)
	if err != nil {
		return nil, fmt.Errorf("resolve credential %q: %w", cfg.SecurityKey, err)
	}
	dsn := dsnFor(driverName, cfg, cred)

	breaker := connection.NewBreakerPolicy(connection.BreakerConfig{
		Name:        fmt.Sprintf("shard-%d-%s", shardID, role),
		MinRequests: 10,
		FailureRate: 0.5,
		Interval:    time.Minute,
		OpenTimeout: 30 * time.Second,
	}, func(name string, from, to gobreaker.State) {
		metrics.SetBreakerState(name, shardmetrics.BreakerState(to))
	})

	mgr, err := connection.Open(ctx, driverName, dsn, breaker, breaker)
	if err != nil {
		return nil, err
	}
	mgr.Observe(metrics, fmt.Sprintf("%d", shardID))
	return mgr, nil
}
