package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PokerSync/config"
	"PokerSync/internal/events"
	"PokerSync/internal/game/table"
	"PokerSync/internal/leaderboard"
	"PokerSync/internal/presence"
	"PokerSync/internal/sim"
	"PokerSync/internal/turntimer"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

func newDemoCmd() *cobra.Command {
	var (
		hands int
		step  time.Duration
		keep  bool
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Play scripted hands against a local simulated server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if hands < 1 {
				return errors.New("--hands must be at least 1")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return demo(ctx, config.C, hands, step, keep)
		},
	}
	cmd.Flags().IntVar(&hands, "hands", 1, "number of hands to play")
	cmd.Flags().DurationVar(&step, "step", 300*time.Millisecond, "delay between server events")
	cmd.Flags().BoolVar(&keep, "persist", false, "write stats to the configured backend instead of memory")
	return cmd
}

func demo(ctx context.Context, cfg config.Config, hands int, step time.Duration, persist bool) error {
	script := sim.DefaultScript()
	cfg.Player.Username = script.Viewer
	cfg.Player.Avatar = script.Seats[0].Avatar

	var stats leaderboard.Store = leaderboard.NewMemoryStore()
	if persist {
		s, closeStats, err := openStats(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStats()
		stats = s
	}

	authority := sim.NewAuthority(clockwork.NewRealClock(), step, logger.With("component", "sim"))
	eng := newEngine(cfg, stats, authority)

	eng.OnSnapshot = func(s table.RoomSnapshot) {
		logger.Info("snapshot", "phase", s.Phase, "pot", s.Pot, "turn", s.CurrentPlayerID, "board", cardsString(s.CommunityCards))
	}
	eng.OnPresence = func(d presence.Delta) {
		logger.Info("presence", "joined", d.Joined, "left", d.Left)
	}
	eng.OnTick = func(t turntimer.Tick) {
		logger.Debug("tick", "player", t.PlayerID, "seconds", t.Seconds())
	}
	eng.OnNotice = func(n events.Notice) {
		logger.Info("notice", "kind", n.Kind, "message", n.Message)
	}
	eng.OnResult = chainResult(nil)

	scripts := make([]sim.Script, hands)
	for i := range scripts {
		s := sim.DefaultScript()
		s.Seed += int64(i)
		scripts[i] = s
	}
	go func() {
		if err := authority.Run(ctx, scripts...); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("simulated server stopped", "err", err)
		}
	}()

	if err := eng.Run(ctx, authority); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	h := eng.History()
	for _, f := range h.Frames {
		me, _ := f.Snapshot.Player(script.Viewer)
		logger.Info("replay", "seq", f.Seq, "stage", f.Phase, "pot", f.Snapshot.Pot,
			"board", cardsString(f.Snapshot.CommunityCards), "hole", cardsString(me.Cards))
	}
	for _, e := range eng.RoomLeaderboard() {
		logger.Info("room", "rank", e.Rank, "username", e.Username, "chips", e.Chips, "net", e.Net)
	}
	return printHistoryBoard(ctx, eng.HistoryLeaderboard)
}

func cardsString(cs []table.Card) string {
	out := ""
	for i, c := range cs {
		if i > 0 {
			out += " "
		}
		out += c.String()
	}
	return out
}
