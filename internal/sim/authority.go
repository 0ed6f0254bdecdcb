package sim

import (
	"context"
	"io"
	"sync"
	"time"

	"PokerSync/internal/events"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
)

// Authority replays scripted envelopes as an inbound event source and records
// whatever the client emits back.
type Authority struct {
	clock  clockwork.Clock
	step   time.Duration
	log    *log.Logger
	events chan events.Envelope

	mu   sync.Mutex
	sent []events.Outgoing
}

func NewAuthority(clock clockwork.Clock, step time.Duration, logger *log.Logger) *Authority {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Authority{
		clock:  clock,
		step:   step,
		log:    logger,
		events: make(chan events.Envelope, 64),
	}
}

func (a *Authority) Events() <-chan events.Envelope {
	return a.events
}

// Emit 记录客户端发出的消息（演示服务端不做规则校验）
func (a *Authority) Emit(msg events.Outgoing) error {
	a.mu.Lock()
	a.sent = append(a.sent, msg)
	a.mu.Unlock()
	a.log.Debug("client emitted", "event", msg.Event)
	return nil
}

// Sent 返回客户端发出的所有消息
func (a *Authority) Sent() []events.Outgoing {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]events.Outgoing{}, a.sent...)
}

// Run plays hands scripts in order, pausing step between envelopes, and closes
// the event channel when done or when ctx is cancelled.
func (a *Authority) Run(ctx context.Context, hands ...Script) error {
	defer close(a.events)
	for i, s := range hands {
		envs, err := Play(s)
		if err != nil {
			return err
		}
		a.log.Info("hand started", "room", s.RoomID, "hand", i+1, "events", len(envs))
		for _, env := range envs {
			if a.step > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-a.clock.After(a.step):
				}
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case a.events <- env:
			}
		}
	}
	return nil
}
