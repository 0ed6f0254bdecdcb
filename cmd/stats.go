package main

import (
	"context"

	"PokerSync/config"
	"PokerSync/internal/leaderboard"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the persisted history leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStats, err := openStats(ctx, config.C)
			if err != nil {
				return err
			}
			defer closeStats()
			agg := leaderboard.NewAggregator(store, config.C.Game.DefaultStack, logger)
			return printHistoryBoard(ctx, agg.HistoryView)
		},
	}
}

func printHistoryBoard(ctx context.Context, view func(context.Context) ([]leaderboard.HistoryEntry, error)) error {
	entries, err := view(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		logger.Info("no games recorded yet")
		return nil
	}
	for _, e := range entries {
		logger.Info("history", "rank", e.Rank, "username", e.Username, "avatar", e.Avatar,
			"highest", e.HighestChips, "games", e.GamesPlayed)
	}
	return nil
}
