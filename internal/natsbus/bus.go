// Package natsbus carries room events over NATS instead of a websocket: the
// server publishes envelopes on the room's event subject and listens for
// intents on the intent subject.
package natsbus

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"PokerSync/internal/events"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"
)

// Config NATS 连接参数
type Config struct {
	URL           string        `mapstructure:"url"`
	SubjectPrefix string        `mapstructure:"subject_prefix"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		SubjectPrefix: "pokersync",
		MaxReconnects: -1, // 无限重连
		ReconnectWait: 2 * time.Second,
	}
}

// EventSubject 服务端推送房间事件的主题
func EventSubject(prefix, roomID string) string {
	return fmt.Sprintf("%s.room.%s.events", prefix, roomID)
}

// IntentSubject 客户端发出意图的主题
func IntentSubject(prefix, roomID string) string {
	return fmt.Sprintf("%s.room.%s.intents", prefix, roomID)
}

// Bus implements events.Source and events.Emitter for one room.
type Bus struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	intents string
	log     *log.Logger
	events  chan events.Envelope

	mu        sync.RWMutex
	closed    bool
	done      chan struct{}
	closeOnce sync.Once
}

// Connect 连接 NATS 并订阅房间事件
func Connect(cfg Config, roomID string, logger *log.Logger) (*Bus, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	opts := []nats.Option{
		nats.Name("pokersync-client"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			logger.Error("NATS error", "err", err)
		}),
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	b := &Bus{
		nc:      nc,
		intents: IntentSubject(cfg.SubjectPrefix, roomID),
		log:     logger,
		events:  make(chan events.Envelope, 64),
		done:    make(chan struct{}),
	}
	b.sub, err = nc.Subscribe(EventSubject(cfg.SubjectPrefix, roomID), b.onMsg)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	logger.Info("NATS subscribed", "subject", b.sub.Subject)
	return b, nil
}

func (b *Bus) onMsg(m *nats.Msg) {
	env, err := events.DecodeEnvelope(m.Data)
	if err != nil {
		b.log.Warn("dropping undecodable message", "subject", m.Subject, "err", err)
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	select {
	case b.events <- env:
	case <-b.done:
	}
}

func (b *Bus) Events() <-chan events.Envelope {
	return b.events
}

// Emit publishes msg on the intent subject. Publishing only buffers inside the
// NATS client, so it never blocks.
func (b *Bus) Emit(msg events.Outgoing) error {
	select {
	case <-b.done:
		return events.ErrNotConnected
	default:
	}
	if !b.nc.IsConnected() {
		return events.ErrNotConnected
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Event, err)
	}
	if err := b.nc.Publish(b.intents, data); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Event, err)
	}
	return nil
}

// Close drains the subscription and closes the event channel.
func (b *Bus) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.done)
		err = b.sub.Unsubscribe()
		b.nc.Close()

		b.mu.Lock()
		b.closed = true
		close(b.events)
		b.mu.Unlock()
	})
	return err
}
