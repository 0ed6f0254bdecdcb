package events

import "errors"

// Transport errors shared by every Emitter implementation.
var (
	ErrNotConnected   = errors.New("not connected")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Source 入站事件来源（websocket / nats / 演示服务端）
type Source interface {
	Events() <-chan Envelope
}

// Emitter 出站消息；实现不能阻塞，缓冲满时返回 ErrSendBufferFull
type Emitter interface {
	Emit(msg Outgoing) error
}
