package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"PokerSync/internal/events"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second    // 单次写超时
	pongWait       = 60 * time.Second    // 读超时
	pingPeriod     = (pongWait * 9) / 10 // 心跳发送周期
	maxMessageSize = 1024 * 64
	sendBuffer     = 32
)

// Client is one live connection to the game server. Inbound envelopes go to
// the sink channel given to Dial; outbound messages are queued on send.
type Client struct {
	conn *websocket.Conn
	send chan events.Outgoing
	sink chan<- events.Envelope
	log  *log.Logger

	done      chan struct{}
	readDone  chan struct{}
	closeOnce sync.Once
	err       error
}

// Dial 连接服务端并启动读写协程
func Dial(ctx context.Context, url string, header http.Header, sink chan<- events.Envelope, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := newClient(conn, sink, logger)
	go c.writePump()
	go c.readPump()
	return c, nil
}

func newClient(conn *websocket.Conn, sink chan<- events.Envelope, logger *log.Logger) *Client {
	return &Client{
		conn:     conn,
		send:     make(chan events.Outgoing, sendBuffer),
		sink:     sink,
		log:      logger,
		done:     make(chan struct{}),
		readDone: make(chan struct{}),
	}
}

// Emit 非阻塞：连接关闭返回 ErrNotConnected，缓冲满返回 ErrSendBufferFull
func (c *Client) Emit(msg events.Outgoing) error {
	select {
	case <-c.done:
		return events.ErrNotConnected
	default:
	}
	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return events.ErrNotConnected
	default:
		return events.ErrSendBufferFull
	}
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err 连接断开的原因（Done 关闭之后有效）
func (c *Client) Err() error {
	<-c.done
	return c.err
}

// Close shuts the connection and waits for the read loop to stop delivering.
func (c *Client) Close() error {
	c.shutdown(nil)
	if c.conn != nil {
		<-c.readDone
	}
	return nil
}

func (c *Client) shutdown(err error) {
	c.closeOnce.Do(func() {
		c.err = err
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// 写协程
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod) // 心跳
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		// 有消息待发
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.shutdown(fmt.Errorf("write: %w", err))
				return
			}

		// 定时发送 ping 维持连接健康
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.shutdown(fmt.Errorf("ping: %w", err))
				return
			}
		}
	}
}

// 读协程：每一帧解析成 Envelope 交给 sink
func (c *Client) readPump() {
	defer close(c.readDone)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.shutdown(fmt.Errorf("read: %w", err))
			return
		}
		var env events.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.Warn("dropping undecodable frame", "err", err, "size", len(data))
			continue
		}
		select {
		case c.sink <- env:
		case <-c.done:
			return
		}
	}
}
