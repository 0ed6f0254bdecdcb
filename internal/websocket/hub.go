package websocket

import (
	"context"
	"io"
	"sync"

	"PokerSync/internal/events"

	"github.com/charmbracelet/log"
)

// Hub fans engine updates out to local renderers connected on /ws.
type Hub struct {
	peers      map[string]*peer // id -> peer
	register   chan *peer
	unregister chan *peer
	broadcast  chan events.Outgoing
	quit       chan struct{}
	log        *log.Logger
	mu         sync.RWMutex
}

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Hub{
		peers:      make(map[string]*peer),
		register:   make(chan *peer),
		unregister: make(chan *peer),
		broadcast:  make(chan events.Outgoing, 64),
		quit:       make(chan struct{}),
		log:        logger,
	}
}

// Run 直到 ctx 结束；退出时关闭所有 peer
func (h *Hub) Run(ctx context.Context) {
	h.log.Debug("hub started")
	defer close(h.quit)

	for {
		select {
		case p := <-h.register:
			h.mu.Lock()
			h.peers[p.id] = p
			n := len(h.peers)
			h.mu.Unlock()
			h.log.Debug("hub.register", "peer", p.id, "peers", n)

		case p := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.peers[p.id]; ok {
				delete(h.peers, p.id)
				close(p.send)
			}
			n := len(h.peers)
			h.mu.Unlock()
			h.log.Debug("hub.unregister", "peer", p.id, "peers", n)

		case msg := <-h.broadcast:
			h.mu.RLock()
			for _, p := range h.peers {
				select {
				case p.send <- msg:
				default:
					// 慢客户端直接丢弃这条
					h.log.Debug("peer buffer full, dropping", "peer", p.id, "event", msg.Event)
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.mu.Lock()
			for id, p := range h.peers {
				close(p.send)
				delete(h.peers, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast never blocks the caller; when the hub queue is full the update is
// dropped (renderers resync from the next one).
func (h *Hub) Broadcast(event string, data any) {
	select {
	case h.broadcast <- events.Outgoing{Event: event, Data: data}:
	default:
		h.log.Debug("hub queue full, dropping", "event", event)
	}
}

// Count 当前连接数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}
