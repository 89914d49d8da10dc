// Package cmd holds the parkingfee command line.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"parkingfee/config"
	"parkingfee/handlers"
	"parkingfee/logger"
	"parkingfee/rates"
)

var (
	cfg    *config.Config
	dbPath string
)

var rootCmd = &cobra.Command{
	Use:   "parkingfee",
	Short: "Parking fee calculator with stored rate profiles",
	Long: `Compute parking fees from a stay length and start time using
day/night unit pricing with caps, and manage the stored rate profiles.

Examples:
  parkingfee fee --minutes 300 --start 10:00
  parkingfee split --weekday 720 --holiday 900
  parkingfee rates show holiday
  parkingfee serve`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if dbPath != "" {
			cfg.Store.DBPath = dbPath
		}
		return logger.Init(cfg.Server.Environment, cfg.Server.LogLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "rate database path (overrides DB_PATH)")
}

// Execute runs the root command.
func Execute() error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}

// openStore opens the SQLite rate store and, when Redis is configured and
// reachable, wraps it with the Redis cache. The returned checks are used by
// the health endpoint.
func openStore(ctx context.Context) (rates.Catalog, map[string]handlers.HealthCheck, func(), error) {
	log := logger.Named("rates")

	sqlite, err := rates.OpenSQLite(ctx, cfg.Store.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open rate store %s: %w", cfg.Store.DBPath, err)
	}
	checks := map[string]handlers.HealthCheck{"store": sqlite.Ping}
	closers := []func() error{sqlite.Close}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	if !cfg.Redis.Enabled() {
		return sqlite, checks, closeAll, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis unavailable, rate cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		_ = rdb.Close()
		return sqlite, checks, closeAll, nil
	}

	closers = append(closers, rdb.Close)
	checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	return rates.NewCachedStore(sqlite, rdb, cfg.Redis.TTL, log), checks, closeAll, nil
}
