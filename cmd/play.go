package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PokerSync/config"
	"PokerSync/internal/api"
	"PokerSync/internal/auth"
	"PokerSync/internal/events"
	"PokerSync/internal/game/engine"
	"PokerSync/internal/leaderboard"
	"PokerSync/internal/natsbus"
	"PokerSync/internal/websocket"

	"github.com/spf13/cobra"
)

func newPlayCmd() *cobra.Command {
	var (
		roomID   string
		create   bool
		username string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Connect to a game server and keep the local table in sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.C
			if cmd.Flags().Changed("room") {
				cfg.Room.ID = roomID
			}
			if cmd.Flags().Changed("create") {
				cfg.Room.Create = create
			}
			if username != "" {
				cfg.Player.Username = username
			}
			if cfg.Player.Username == "" {
				return errors.New("player.username is required")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return play(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&roomID, "room", "", "room id to join (or create)")
	cmd.Flags().BoolVar(&create, "create", false, "create the room as host")
	cmd.Flags().StringVarP(&username, "username", "u", "", "override player.username")
	return cmd
}

func play(ctx context.Context, cfg config.Config) error {
	stats, closeStats, err := openStats(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStats()

	header, err := login(ctx, cfg)
	if err != nil {
		return err
	}

	if cfg.Room.Create && cfg.Room.ID == "" {
		cfg.Room.ID = engine.NewRoomID()
	}

	var (
		src  events.Source
		eng  *engine.Engine
		conn *websocket.Connector
	)
	switch cfg.Server.Transport {
	case "nats":
		if cfg.Room.ID == "" {
			return errors.New("nats transport needs room.id")
		}
		bus, err := natsbus.Connect(cfg.NATS, cfg.Room.ID, logger.With("component", "nats"))
		if err != nil {
			return err
		}
		defer bus.Close()
		src, eng = bus, newEngine(cfg, stats, bus)
	default:
		conn = websocket.NewConnector(cfg.Server.URL, header, logger.With("component", "ws"))
		src, eng = conn, newEngine(cfg, stats, conn)
		conn.OnConnect = func() { enterRoom(eng, cfg) }
	}

	hub := websocket.NewHub(logger.With("component", "hub"))
	go hub.Run(ctx)
	api.Bridge(eng, hub)
	eng.OnResult = chainResult(eng.OnResult)

	srv := &http.Server{Addr: cfg.API.Addr, Handler: api.NewRouter(eng, hub, cfg.API.AllowedOrigins, logger)}
	go func() {
		logger.Info("local api listening", "addr", cfg.API.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("local api stopped", "err", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if conn != nil {
		go func() {
			if err := conn.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("connector stopped", "err", err)
			}
		}()
	} else {
		enterRoom(eng, cfg)
	}

	err = eng.Run(ctx, src)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func newEngine(cfg config.Config, stats leaderboard.Store, emitter events.Emitter) *engine.Engine {
	return engine.New(engine.Options{
		Username:     cfg.Player.Username,
		Avatar:       cfg.Player.Avatar,
		TurnDuration: cfg.TurnDuration(),
		DefaultStack: cfg.Game.DefaultStack,
		KeepHands:    cfg.Game.KeepHands,
		Logger:       logger.With("component", "engine"),
		Stats:        stats,
	}, emitter)
}

// enterRoom 首次连接时加入（或创建）配置的房间，重连后重新加入当前房间
func enterRoom(eng *engine.Engine, cfg config.Config) {
	if id := eng.RoomID(); id != "" {
		if err := eng.JoinRoom(id); err != nil {
			logger.Warn("rejoin failed", "room", id, "err", err)
		}
		return
	}
	if cfg.Room.ID == "" {
		logger.Info("connected, no room configured; use the local api to create or join one")
		return
	}
	if cfg.Room.Create {
		id, err := eng.CreateRoom(cfg.Room.ID, cfg.Room.Settings)
		if err != nil {
			logger.Error("create room failed", "err", err)
			return
		}
		logger.Info("room created", "room", id)
		return
	}
	if err := eng.JoinRoom(cfg.Room.ID); err != nil {
		logger.Error("join room failed", "room", cfg.Room.ID, "err", err)
	}
}

func chainResult(prev func(events.Result)) func(events.Result) {
	return func(r events.Result) {
		if prev != nil {
			prev(r)
		}
		for _, w := range r.Winners {
			logger.Info("🏆 winner", "username", w.Username, "hand", w.HandName, "amount", w.Amount)
		}
	}
}

// login 配置了 auth_url 时用钱包签名换取 JWT，返回 websocket 握手头
func login(ctx context.Context, cfg config.Config) (http.Header, error) {
	if cfg.Server.AuthURL == "" {
		return nil, nil
	}
	var (
		signer *auth.Signer
		err    error
	)
	if cfg.Player.WalletKey != "" {
		signer, err = auth.NewSigner(cfg.Player.WalletKey)
	} else {
		signer, err = auth.GenerateSigner()
	}
	if err != nil {
		return nil, err
	}
	token, err := auth.NewClient(cfg.Server.AuthURL, signer).Login(ctx)
	if err != nil {
		return nil, err
	}
	if exp, err := auth.TokenExpiry(token); err == nil {
		logger.Info("logged in", "address", signer.Address(), "expires", exp.Format(time.RFC3339))
	}
	return auth.BearerHeader(token), nil
}
