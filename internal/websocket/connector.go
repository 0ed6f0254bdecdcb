package websocket

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"PokerSync/internal/events"

	"github.com/charmbracelet/log"
)

// minBackoffFloor 防止 MinBackoff 为 0 时重连死循环
const minBackoffFloor = 100 * time.Millisecond

// Connector keeps one Client alive, re-dialing with exponential backoff. Its
// Events channel survives reconnects so the engine never notices a drop.
type Connector struct {
	url    string
	header http.Header
	log    *log.Logger
	events chan events.Envelope

	MinBackoff time.Duration
	MaxBackoff time.Duration

	mu  sync.RWMutex
	cur *Client

	OnConnect    func()
	OnDisconnect func(err error)
}

func NewConnector(url string, header http.Header, logger *log.Logger) *Connector {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Connector{
		url:        url,
		header:     header,
		log:        logger,
		events:     make(chan events.Envelope, 64),
		MinBackoff: 500 * time.Millisecond,
		MaxBackoff: 15 * time.Second,
	}
}

func (c *Connector) Events() <-chan events.Envelope {
	return c.events
}

// Emit 当前没有连接时返回 ErrNotConnected
func (c *Connector) Emit(msg events.Outgoing) error {
	c.mu.RLock()
	cur := c.cur
	c.mu.RUnlock()
	if cur == nil {
		return events.ErrNotConnected
	}
	return cur.Emit(msg)
}

// Connected 是否有可用连接
func (c *Connector) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cur != nil
}

// Run dials until ctx is cancelled. The Events channel is closed on return.
func (c *Connector) Run(ctx context.Context) error {
	defer close(c.events)
	minB, maxB := c.backoffBounds()
	backoff := minB
	for {
		client, err := Dial(ctx, c.url, c.header, c.events, c.log)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("connect failed, retrying", "err", err, "backoff", backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxB {
				backoff = maxB
			}
			continue
		}

		backoff = minB
		c.setClient(client)
		c.log.Info("connected", "url", c.url)
		if c.OnConnect != nil {
			c.OnConnect()
		}

		select {
		case <-ctx.Done():
			c.setClient(nil)
			_ = client.Close()
			return ctx.Err()
		case <-client.Done():
			_ = client.Close()
			c.setClient(nil)
			c.log.Warn("connection lost", "err", client.Err())
			if c.OnDisconnect != nil {
				c.OnDisconnect(client.Err())
			}
		}
	}
}

// backoffBounds MinBackoff 不低于 minBackoffFloor，MaxBackoff 不低于 MinBackoff
func (c *Connector) backoffBounds() (time.Duration, time.Duration) {
	minB, maxB := c.MinBackoff, c.MaxBackoff
	if minB <= 0 {
		minB = minBackoffFloor
	}
	if maxB < minB {
		maxB = minB
	}
	return minB, maxB
}

func (c *Connector) setClient(cl *Client) {
	c.mu.Lock()
	c.cur = cl
	c.mu.Unlock()
}
