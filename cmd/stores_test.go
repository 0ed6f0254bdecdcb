package main

import (
	"context"
	"testing"

	"PokerSync/config"
	"PokerSync/internal/leaderboard"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStatsBackends(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	for _, backend := range []string{"memory", "file", "redis"} {
		t.Run(backend, func(t *testing.T) {
			var cfg config.Config
			cfg.Stats.Backend = backend
			cfg.Stats.Dir = t.TempDir()
			cfg.Redis.Addr = mr.Addr()
			cfg.Redis.Prefix = "t:"

			s, closeStats, err := openStats(ctx, cfg)
			require.NoError(t, err)
			defer closeStats()

			doc := leaderboard.NewDocument()
			doc.Players["Alice"] = leaderboard.Record{Avatar: "avatar1", HighestChips: 1340, GamesPlayed: 1}
			require.NoError(t, s.Save(ctx, doc))
			got, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, doc.Players, got.Players)
		})
	}
}

func TestOpenStatsUnknownBackend(t *testing.T) {
	var cfg config.Config
	cfg.Stats.Backend = "mongo"
	_, closeStats, err := openStats(context.Background(), cfg)
	assert.Error(t, err)
	closeStats()
}
