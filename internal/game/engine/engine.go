// Package engine 客户端同步引擎：把服务端推送的事件落到本地状态，驱动倒计时、
// 历史记录与排行榜。
package engine

import (
	"context"
	"io"
	"sync"
	"time"

	"PokerSync/internal/events"
	"PokerSync/internal/game/table"
	"PokerSync/internal/history"
	"PokerSync/internal/leaderboard"
	"PokerSync/internal/presence"
	"PokerSync/internal/session"
	"PokerSync/internal/turntimer"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
)

const (
	defaultTurnDuration = 30 * time.Second
	defaultStack        = 1000
	defaultKeepHands    = 20
	maxNotices          = 100
	storeTimeout        = 5 * time.Second
)

// Options 引擎的构造参数；零值字段取默认值
type Options struct {
	// Username 本地玩家（服务端以用户名作为玩家 id）
	Username string
	Avatar   string

	TurnDuration time.Duration
	DefaultStack int64
	KeepHands    int

	Clock  clockwork.Clock
	Logger *log.Logger
	Stats  leaderboard.Store
}

// Engine owns every piece of client state. Handle and the timer tick mutate
// it under mu; read views and intents may be called from other goroutines.
type Engine struct {
	mu      sync.RWMutex
	opts    Options
	log     *log.Logger
	emitter events.Emitter

	session *session.Store
	timer   *turntimer.Timer
	history *history.Recorder
	board   *leaderboard.Aggregator

	roomID     string
	hole       []table.Card
	pending    []table.Card
	lastResult *events.Result
	notices    []events.Notice

	// 回调在释放锁之后按顺序执行，可以安全地调用读接口
	queued []func()

	OnSnapshot func(table.RoomSnapshot)
	OnPresence func(presence.Delta)
	OnTick     func(turntimer.Tick)
	OnNotice   func(events.Notice)
	OnResult   func(events.Result)
}

// New wires the components together. emitter may be nil, in which case every
// intent fails with events.ErrNotConnected.
func New(opts Options, emitter events.Emitter) *Engine {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.TurnDuration <= 0 {
		opts.TurnDuration = defaultTurnDuration
	}
	if opts.DefaultStack <= 0 {
		opts.DefaultStack = defaultStack
	}
	if opts.KeepHands == 0 {
		opts.KeepHands = defaultKeepHands
	}
	if opts.Stats == nil {
		opts.Stats = leaderboard.NewMemoryStore()
	}

	e := &Engine{
		opts:    opts,
		log:     opts.Logger,
		emitter: emitter,
		session: session.NewStore(opts.Username),
		timer:   turntimer.New(opts.Clock, time.Second, opts.Logger.With("component", "timer")),
		history: history.NewRecorder(opts.Clock, opts.KeepHands),
		board:   leaderboard.NewAggregator(opts.Stats, opts.DefaultStack, opts.Logger.With("component", "leaderboard")),
	}
	e.timer.OnTick = func(t turntimer.Tick) {
		e.later(func() {
			if e.OnTick != nil {
				e.OnTick(t)
			}
		})
	}
	e.timer.CanExpire = e.canAutoFold
	e.timer.OnExpire = e.autoFold
	e.session.OnPhaseChanged = func(prev, next table.Phase, _ table.RoomSnapshot) {
		e.log.Info("phase changed", "from", prev, "to", next)
	}
	return e
}

// Run processes inbound events and timer ticks on the calling goroutine until
// ctx is cancelled or the source is closed. Connection loss never resets state.
func (e *Engine) Run(ctx context.Context, src events.Source) error {
	in := src.Events()
	defer e.stopTimer()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-in:
			if !ok {
				e.log.Info("event source closed")
				return nil
			}
			e.Handle(env)
		case <-e.tickC():
			e.Tick()
		}
	}
}

// Handle applies one inbound event. It never returns an error: malformed
// payloads are logged and dropped.
func (e *Engine) Handle(env events.Envelope) {
	e.mu.Lock()
	e.dispatch(env)
	queued := e.drain()
	e.mu.Unlock()
	run(queued)
}

// Tick handles one timer tick; Run calls it whenever the ticker fires.
func (e *Engine) Tick() {
	e.mu.Lock()
	e.timer.Tick()
	queued := e.drain()
	e.mu.Unlock()
	run(queued)
}

func (e *Engine) tickC() <-chan time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.timer.C()
}

func (e *Engine) stopTimer() {
	e.mu.Lock()
	e.timer.Cancel()
	e.mu.Unlock()
}

func (e *Engine) later(f func()) {
	e.queued = append(e.queued, f)
}

func (e *Engine) drain() []func() {
	q := e.queued
	e.queued = nil
	return q
}

func run(fs []func()) {
	for _, f := range fs {
		f()
	}
}

func (e *Engine) storeCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}
