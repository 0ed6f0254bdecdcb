package main

import (
	"context"
	"fmt"

	"PokerSync/config"
	"PokerSync/internal/leaderboard"
	"PokerSync/internal/storage"
)

// openStats 按配置选择统计数据的存储后端；返回的 close 总是非 nil
func openStats(ctx context.Context, cfg config.Config) (leaderboard.Store, func(), error) {
	noop := func() {}
	switch cfg.Stats.Backend {
	case "memory":
		return leaderboard.NewMemoryStore(), noop, nil
	case "", "file":
		return leaderboard.NewFileStore(cfg.Stats.Dir), noop, nil
	case "redis":
		rdb, err := storage.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		return leaderboard.NewRedisStore(rdb, cfg.Redis.Prefix), func() { _ = rdb.Close() }, nil
	case "postgres":
		db, err := storage.OpenPostgres(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, noop, err
		}
		s, err := leaderboard.NewPostgresStore(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		return s, func() { _ = db.Close() }, nil
	}
	return nil, noop, fmt.Errorf("unknown stats backend %q", cfg.Stats.Backend)
}
