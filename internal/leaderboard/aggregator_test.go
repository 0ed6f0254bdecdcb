package leaderboard

import (
	"context"
	"errors"
	"testing"

	"PokerSync/internal/game/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func players(chips map[string]int64, order ...string) []table.PlayerSnapshot {
	out := make([]table.PlayerSnapshot, 0, len(order))
	for _, name := range order {
		out = append(out, table.PlayerSnapshot{ID: name, Username: name, AvatarID: "avatar1", Chips: chips[name]})
	}
	return out
}

func TestRoomViewNetUsesFirstPreflopChips(t *testing.T) {
	agg := NewAggregator(NewMemoryStore(), 1000, nil)

	agg.Observe(table.RoomSnapshot{Phase: table.PhaseWaiting, Players: players(map[string]int64{"alice": 1}, "alice")})
	agg.Observe(table.RoomSnapshot{
		Phase:   table.PhasePreflop,
		Players: players(map[string]int64{"alice": 1000, "bob": 800}, "alice", "bob"),
	})
	// 第二手的 preflop 不会覆盖已捕获的值
	agg.Observe(table.RoomSnapshot{
		Phase:   table.PhasePreflop,
		Players: players(map[string]int64{"alice": 1340, "bob": 460}, "alice", "bob"),
	})

	current := players(map[string]int64{"alice": 1340, "bob": 460, "carol": 1200}, "bob", "alice", "carol")
	view := agg.RoomView(current)
	require.Len(t, view, 3)
	assert.Equal(t, RoomEntry{Rank: 1, Username: "alice", Avatar: "avatar1", Chips: 1340, Net: 340}, view[0])
	assert.Equal(t, "carol", view[1].Username)
	assert.Equal(t, int64(200), view[1].Net, "carol never seen at preflop uses the default stack")
	assert.Equal(t, int64(-340), view[2].Net)

	// 重复调用结果一致
	assert.Equal(t, view, agg.RoomView(current))
	start, ok := agg.InitialChips("bob")
	assert.True(t, ok)
	assert.Equal(t, int64(800), start)
}

func TestRoomViewTieBreaksByName(t *testing.T) {
	agg := NewAggregator(NewMemoryStore(), 0, nil)
	view := agg.RoomView(players(map[string]int64{"b": 5, "a": 5}, "b", "a"))
	assert.Equal(t, "a", view[0].Username)
	assert.Equal(t, 2, view[1].Rank)
}

func TestRecordResultCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	agg := NewAggregator(store, 1000, nil)

	r, err := agg.RecordResult(ctx, "alice", "avatar2", 1340)
	require.NoError(t, err)
	assert.Equal(t, Record{Avatar: "avatar2", HighestChips: 1340, GamesPlayed: 1}, r)

	r, err = agg.RecordResult(ctx, "alice", "avatar3", 900)
	require.NoError(t, err)
	assert.Equal(t, int64(1340), r.HighestChips, "highestChips never decreases")
	assert.Equal(t, 2, r.GamesPlayed)
	assert.Equal(t, "avatar3", r.Avatar)

	r, err = agg.RecordResult(ctx, "alice", "", 2000)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), r.HighestChips)
	assert.Equal(t, "avatar3", r.Avatar)

	// write-through
	doc, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, r, doc.Players["alice"])
}

func TestHighestChipsMonotonic(t *testing.T) {
	ctx := context.Background()
	agg := NewAggregator(NewMemoryStore(), 1000, nil)
	var last int64
	for _, c := range []int64{500, 1500, 200, 1499, 0, 3000, -10} {
		r, err := agg.RecordResult(ctx, "u", "", c)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, r.HighestChips, last)
		last = r.HighestChips
	}
	assert.Equal(t, int64(3000), last)
}

func TestHistoryViewSorted(t *testing.T) {
	ctx := context.Background()
	agg := NewAggregator(NewMemoryStore(), 1000, nil)
	_, _ = agg.RecordResult(ctx, "bob", "a1", 700)
	_, _ = agg.RecordResult(ctx, "alice", "a2", 1340)
	_, _ = agg.RecordResult(ctx, "carol", "a3", 1000)

	view, err := agg.HistoryView(ctx)
	require.NoError(t, err)
	require.Len(t, view, 3)
	assert.Equal(t, []string{"alice", "carol", "bob"}, []string{view[0].Username, view[1].Username, view[2].Username})
	assert.Equal(t, 1, view[0].Rank)
	assert.Equal(t, 3, view[2].Rank)
}

type brokenStore struct {
	loadErr error
	saved   []Document
}

func (b *brokenStore) Load(ctx context.Context) (Document, error) {
	return NewDocument(), b.loadErr
}

func (b *brokenStore) Save(ctx context.Context, doc Document) error {
	b.saved = append(b.saved, doc)
	return nil
}

// 解析失败：当作空数据，下一次写入重建合法文档
func TestCorruptStoreTreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	store := &brokenStore{loadErr: ErrCorrupt}
	agg := NewAggregator(store, 1000, nil)

	view, err := agg.HistoryView(ctx)
	require.NoError(t, err)
	assert.Empty(t, view)

	r, err := agg.RecordResult(ctx, "alice", "a", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, r.GamesPlayed)
	require.Len(t, store.saved, 1)
	assert.Equal(t, SchemaVersion, store.saved[0].Version)
}

// 连接类错误不能覆盖已有数据
func TestStoreFailureDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	store := &brokenStore{loadErr: errors.New("connection refused")}
	agg := NewAggregator(store, 1000, nil)

	_, err := agg.RecordResult(ctx, "alice", "a", 10)
	assert.Error(t, err)
	assert.Empty(t, store.saved)

	_, err = agg.HistoryView(ctx)
	assert.Error(t, err)
}
