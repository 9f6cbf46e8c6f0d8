package main

import (
	"fmt"
	"hos-trip-planner/internal/adapters/cache"
	"hos-trip-planner/internal/config"
	"hos-trip-planner/internal/platform/db"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the server's route cache",
}

var cacheFlushCmd = &cobra.Command{
	Use:   "flush",
	Short: "Drop every cached route, e.g. after changing truck restrictions",
	Long: `Drop every cached route. Uses Redis when REDIS_ADDR is set and the
route_cache table of DATABASE_URL otherwise, like the server does.
With --geocodes the geocode_cache table is cleared as well.`,
	RunE: runCacheFlush,
}

var flushGeocodes bool

func init() {
	cacheFlushCmd.Flags().BoolVar(&flushGeocodes, "geocodes", false, "Also drop cached address geocodes")
	cacheCmd.AddCommand(cacheFlushCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheFlush(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := withContext(cmd)

	if cfg.RedisAddr != "" {
		rc := cache.NewRedisRouteCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, log.Logger)
		defer rc.Close()
		if !rc.IsAvailable() {
			return fmt.Errorf("redis at %s is unavailable", cfg.RedisAddr)
		}
		if err := rc.Invalidate(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "flushed routes from redis %s\n", cfg.RedisAddr)
		if !flushGeocodes {
			return nil
		}
	}

	open := db.OpenSQLite
	if cfg.DBDialect == db.Postgres {
		open = db.Open
	}
	conn, err := open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	if cfg.RedisAddr == "" {
		if err := cache.NewSQLRouteCache(conn, cfg.DBDialect).Invalidate(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "flushed routes from %s route_cache\n", cfg.DBDialect)
	}
	if flushGeocodes {
		if err := cache.NewSQLGeocodeCache(conn, cfg.DBDialect).Invalidate(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "flushed geocodes from %s geocode_cache\n", cfg.DBDialect)
	}
	return nil
}
