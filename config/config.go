package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"PokerSync/internal/events"
	"PokerSync/internal/natsbus"
	"PokerSync/internal/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		// URL 游戏服务端 websocket 地址
		URL string
		// AuthURL 登录接口地址；为空时不登录
		AuthURL string `mapstructure:"auth_url"`
		// Transport websocket | nats
		Transport string
	}
	Player struct {
		Username  string
		Avatar    string
		WalletKey string `mapstructure:"wallet_key"`
	}
	Room struct {
		ID       string
		Create   bool
		Settings events.RoomSettings
	}
	Game struct {
		TurnSeconds  int   `mapstructure:"turn_seconds"`
		DefaultStack int64 `mapstructure:"default_stack"`
		KeepHands    int   `mapstructure:"keep_hands"`
	}
	API struct {
		Addr string
		// AllowedOrigins 本地渲染端的来源；其他网页的请求一律 403
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	}
	Stats struct {
		// Backend memory | file | redis | postgres
		Backend string
		Dir     string
	}
	Redis    storage.RedisConfig
	Database struct {
		DSN string
	}
	NATS natsbus.Config
	Log  struct {
		Level string
	}
}

var C Config

// TurnDuration 每回合倒计时
func (c Config) TurnDuration() time.Duration {
	return time.Duration(c.Game.TurnSeconds) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.url", "ws://localhost:8080/ws")
	v.SetDefault("server.auth_url", "")
	v.SetDefault("server.transport", "websocket")

	v.SetDefault("player.username", "")
	v.SetDefault("player.avatar", "avatar1")
	v.SetDefault("player.wallet_key", "")

	d := events.DefaultRoomSettings()
	v.SetDefault("room.id", "")
	v.SetDefault("room.create", false)
	v.SetDefault("room.settings.small_blind", d.SmallBlind)
	v.SetDefault("room.settings.big_blind", d.BigBlind)
	v.SetDefault("room.settings.all_in_rounds", d.AllInRounds)
	v.SetDefault("room.settings.initial_chips", d.InitialChips)

	v.SetDefault("game.turn_seconds", 30)
	v.SetDefault("game.default_stack", d.InitialChips)
	v.SetDefault("game.keep_hands", 20)

	v.SetDefault("api.addr", "127.0.0.1:7070")
	v.SetDefault("api.allowed_origins", []string{"http://127.0.0.1:7070", "http://localhost:7070"})

	v.SetDefault("stats.backend", "file")
	v.SetDefault("stats.dir", ".pokersync")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "pokersync:")

	v.SetDefault("database.dsn", "")

	n := natsbus.DefaultConfig()
	v.SetDefault("nats.url", n.URL)
	v.SetDefault("nats.subject_prefix", n.SubjectPrefix)
	v.SetDefault("nats.max_reconnects", n.MaxReconnects)
	v.SetDefault("nats.reconnect_wait", n.ReconnectWait)

	v.SetDefault("log.level", "info")
}

// Load reads .env (if present), then path (or config/config.yaml when path is
// empty), then POKERSYNC_* environment overrides, into C.
func Load(path string) error {
	cfg, err := Read(path)
	if err != nil {
		return err
	}
	C = cfg
	return nil
}

// Read 与 Load 相同但不写全局变量
func Read(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("POKERSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("config")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.Room.Settings = cfg.Room.Settings.Normalize()
	return cfg, nil
}
