// Package turntimer drives the single turn countdown shown to the player.
//
// The timer is a two-state machine (Idle, Running). Arming a new countdown
// always stops the previous ticker first, so an old countdown can never reach
// its expiry action once the turn has moved on.
package turntimer

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jonboulle/clockwork"
)

type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Status 计时器的只读视图
type Status struct {
	State     State         `json:"-"`
	StateName string        `json:"state"`
	PlayerID  string        `json:"playerId,omitempty"`
	Deadline  time.Time     `json:"deadline,omitempty"`
	Total     time.Duration `json:"total"`
	Remaining time.Duration `json:"remaining"`
}

// Tick is what observers receive once per interval.
type Tick struct {
	PlayerID  string
	Remaining time.Duration
	Total     time.Duration
}

// Seconds 向上取整的剩余秒数，用于倒计时显示
func (t Tick) Seconds() int {
	if t.Remaining <= 0 {
		return 0
	}
	return int((t.Remaining + time.Second - 1) / time.Second)
}

// Fraction 剩余比例（进度条）
func (t Tick) Fraction() float64 {
	if t.Total <= 0 || t.Remaining <= 0 {
		return 0
	}
	return float64(t.Remaining) / float64(t.Total)
}

type Timer struct {
	clock    clockwork.Clock
	interval time.Duration
	log      *log.Logger

	state    State
	playerID string
	deadline time.Time
	total    time.Duration
	ticker   clockwork.Ticker

	// OnTick 每次 tick（以及刚启动时）通知剩余时间
	OnTick func(Tick)
	// OnExpire 倒计时归零时最多调用一次
	OnExpire func(playerID string)
	// CanExpire 到期前再确认一次动作是否合法；nil 表示总是合法
	CanExpire func(playerID string) bool
}

// New interval <= 0 means one second.
func New(clock clockwork.Clock, interval time.Duration, logger *log.Logger) *Timer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Timer{clock: clock, interval: interval, log: logger}
}

// OnTurnChanged cancels any running countdown and then arms a new one for
// playerID. An empty playerID or non-positive duration only cancels.
func (t *Timer) OnTurnChanged(playerID string, d time.Duration) {
	t.Cancel()
	if playerID == "" || d <= 0 {
		return
	}
	t.state = Running
	t.playerID = playerID
	t.total = d
	t.deadline = t.clock.Now().Add(d)
	t.ticker = t.clock.NewTicker(t.interval)
	t.log.Debug("countdown armed", "player", playerID, "duration", d)
	t.notify(d)
}

// Cancel 幂等；Idle 状态下调用没有副作用
func (t *Timer) Cancel() {
	if t.state == Idle {
		return
	}
	t.stop()
	t.log.Debug("countdown cancelled", "player", t.playerID)
	t.reset()
}

// C returns the tick channel of the running countdown, nil when Idle. A nil
// channel blocks forever, so callers can select on it unconditionally.
func (t *Timer) C() <-chan time.Time {
	if t.ticker == nil {
		return nil
	}
	return t.ticker.Chan()
}

// Tick handles one tick: remaining is recomputed from the deadline rather than
// decremented, so late ticks do not accumulate drift.
func (t *Timer) Tick() {
	if t.state != Running {
		return
	}
	remaining := t.deadline.Sub(t.clock.Now())
	if remaining > 0 {
		t.notify(remaining)
		return
	}

	// 先回到 Idle 再执行动作，保证只触发一次
	playerID := t.playerID
	t.stop()
	t.reset()
	t.notifyFor(playerID, 0, 0)

	if t.CanExpire != nil && !t.CanExpire(playerID) {
		t.log.Debug("countdown expired, action not legal", "player", playerID)
		return
	}
	t.log.Info("countdown expired", "player", playerID)
	if t.OnExpire != nil {
		t.OnExpire(playerID)
	}
}

func (t *Timer) Status() Status {
	st := Status{State: t.state, StateName: t.state.String(), PlayerID: t.playerID, Total: t.total}
	if t.state == Running {
		st.Deadline = t.deadline
		st.Remaining = t.deadline.Sub(t.clock.Now())
		if st.Remaining < 0 {
			st.Remaining = 0
		}
	}
	return st
}

func (t *Timer) stop() {
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
}

func (t *Timer) reset() {
	t.state = Idle
	t.playerID = ""
	t.deadline = time.Time{}
	t.total = 0
}

func (t *Timer) notify(remaining time.Duration) {
	t.notifyFor(t.playerID, remaining, t.total)
}

func (t *Timer) notifyFor(playerID string, remaining, total time.Duration) {
	if t.OnTick != nil {
		t.OnTick(Tick{PlayerID: playerID, Remaining: remaining, Total: total})
	}
}
