package turntimer

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	ticks   []Tick
	expired []string
}

func newTimer(t *testing.T) (*Timer, *clockwork.FakeClock, *recorder) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	tm := New(clock, time.Second, nil)
	rec := &recorder{}
	tm.OnTick = func(tk Tick) { rec.ticks = append(rec.ticks, tk) }
	tm.OnExpire = func(id string) { rec.expired = append(rec.expired, id) }
	return tm, clock, rec
}

// step 推进一秒并处理一次 tick
func step(tm *Timer, clock *clockwork.FakeClock, n int) {
	for i := 0; i < n; i++ {
		clock.Advance(time.Second)
		tm.Tick()
	}
}

func TestCountdownExpiresOnce(t *testing.T) {
	tm, clock, rec := newTimer(t)
	tm.OnTurnChanged("A", 3*time.Second)
	require.Equal(t, Running, tm.Status().State)

	step(tm, clock, 2)
	assert.Empty(t, rec.expired)

	step(tm, clock, 1)
	assert.Equal(t, []string{"A"}, rec.expired)
	assert.Equal(t, Idle, tm.Status().State)
	assert.Nil(t, tm.C())

	// 之后的 tick 不会再次触发
	step(tm, clock, 5)
	assert.Equal(t, []string{"A"}, rec.expired)
}

// 场景：A 计时 30s，5s 后轮到 B；A 的旧计时器不能再触发
func TestTurnChangeCancelsOldCountdown(t *testing.T) {
	tm, clock, rec := newTimer(t)
	tm.OnTurnChanged("A", 30*time.Second)
	step(tm, clock, 5)

	tm.OnTurnChanged("B", 30*time.Second)
	assert.Equal(t, "B", tm.Status().PlayerID)

	// A 的原截止时间（再过 25s）已过，但不应有任何触发
	step(tm, clock, 25)
	assert.Empty(t, rec.expired)

	step(tm, clock, 5)
	assert.Equal(t, []string{"B"}, rec.expired)
}

func TestDoubleTurnChangeNeverFiresTwice(t *testing.T) {
	tm, clock, rec := newTimer(t)
	tm.OnTurnChanged("A", 2*time.Second)
	tm.OnTurnChanged("A", 2*time.Second)

	step(tm, clock, 10)
	assert.Equal(t, []string{"A"}, rec.expired)
}

// 旧 ticker 在重新计时时被停止，C() 换成新的通道
func TestRearmSwapsTickerChannel(t *testing.T) {
	tm, _, _ := newTimer(t)
	tm.OnTurnChanged("A", 30*time.Second)
	first := tm.C()
	require.NotNil(t, first)

	tm.OnTurnChanged("B", 30*time.Second)
	second := tm.C()
	require.NotNil(t, second)
	assert.NotEqual(t, first, second)
}

func TestTickChannelDelivers(t *testing.T) {
	tm, clock, rec := newTimer(t)
	tm.OnTurnChanged("A", 2*time.Second)
	clock.Advance(time.Second)

	select {
	case <-tm.C():
		tm.Tick()
	case <-time.After(time.Second):
		t.Fatal("expected a tick")
	}
	require.NotEmpty(t, rec.ticks)
	assert.Equal(t, 1, rec.ticks[len(rec.ticks)-1].Seconds())
}

func TestCancelIsIdempotent(t *testing.T) {
	tm, clock, rec := newTimer(t)
	tm.Cancel()
	assert.Equal(t, Idle, tm.Status().State)

	tm.OnTurnChanged("A", time.Second)
	tm.Cancel()
	tm.Cancel()
	step(tm, clock, 3)
	assert.Empty(t, rec.expired)
}

func TestIllegalExpiryIsSkipped(t *testing.T) {
	tm, clock, rec := newTimer(t)
	tm.CanExpire = func(id string) bool { return id == "me" }

	tm.OnTurnChanged("bob", time.Second)
	step(tm, clock, 1)
	assert.Empty(t, rec.expired)
	assert.Equal(t, Idle, tm.Status().State)

	tm.OnTurnChanged("me", time.Second)
	step(tm, clock, 1)
	assert.Equal(t, []string{"me"}, rec.expired)
}

// 剩余时间按截止时间重算：晚到的 tick 不会累积误差
func TestRemainingComputedFromDeadline(t *testing.T) {
	tm, clock, rec := newTimer(t)
	tm.OnTurnChanged("A", 10*time.Second)
	require.Len(t, rec.ticks, 1)
	assert.Equal(t, 10, rec.ticks[0].Seconds())
	assert.Equal(t, 1.0, rec.ticks[0].Fraction())

	clock.Advance(3500 * time.Millisecond)
	tm.Tick()
	last := rec.ticks[len(rec.ticks)-1]
	assert.Equal(t, 6500*time.Millisecond, last.Remaining)
	assert.Equal(t, 7, last.Seconds())
	assert.Equal(t, 6500*time.Millisecond, tm.Status().Remaining)
}

func TestEmptyPlayerOnlyCancels(t *testing.T) {
	tm, clock, rec := newTimer(t)
	tm.OnTurnChanged("A", 5*time.Second)
	tm.OnTurnChanged("", 5*time.Second)
	assert.Equal(t, Idle, tm.Status().State)
	step(tm, clock, 10)
	assert.Empty(t, rec.expired)
}
