package leaderboard

import (
	"context"
	"errors"
	"io"
	"sort"

	"PokerSync/internal/game/table"

	"github.com/charmbracelet/log"
)

// RoomEntry 房间排行榜的一行
type RoomEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Chips    int64  `json:"chips"`
	Net      int64  `json:"net"`
}

// HistoryEntry 历史排行榜的一行
type HistoryEntry struct {
	Rank         int    `json:"rank"`
	Username     string `json:"username"`
	Avatar       string `json:"avatar"`
	HighestChips int64  `json:"highestChips"`
	GamesPlayed  int    `json:"gamesPlayed"`
}

// Aggregator derives both leaderboards on demand. Initial chips are captured
// once per username for the whole session. Observe, InitialChips and RoomView
// share that map and need the caller's lock; HistoryView and RecordResult only
// touch the store.
type Aggregator struct {
	store        Store
	log          *log.Logger
	defaultStack int64
	initial      map[string]int64
}

// NewAggregator defaultStack is used as the starting stack of players never
// observed in a preflop snapshot.
func NewAggregator(store Store, defaultStack int64, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Aggregator{
		store:        store,
		log:          logger,
		defaultStack: defaultStack,
		initial:      make(map[string]int64),
	}
}

// Observe captures initial chips from a preflop snapshot. A username already
// captured is never updated again.
func (a *Aggregator) Observe(snap table.RoomSnapshot) {
	if snap.Phase != table.PhasePreflop {
		return
	}
	for _, p := range snap.Players {
		if _, ok := a.initial[p.Username]; ok {
			continue
		}
		a.initial[p.Username] = p.Chips
		a.log.Debug("initial chips captured", "username", p.Username, "chips", p.Chips)
	}
}

// InitialChips 返回已捕获的初始筹码
func (a *Aggregator) InitialChips(username string) (int64, bool) {
	v, ok := a.initial[username]
	return v, ok
}

// RoomView sorts players by chips, highest first.
func (a *Aggregator) RoomView(players []table.PlayerSnapshot) []RoomEntry {
	out := make([]RoomEntry, 0, len(players))
	for _, p := range players {
		start, ok := a.initial[p.Username]
		if !ok {
			start = a.defaultStack
		}
		out = append(out, RoomEntry{
			Username: p.Username,
			Avatar:   p.AvatarID,
			Chips:    p.Chips,
			Net:      p.Chips - start,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Chips != out[j].Chips {
			return out[i].Chips > out[j].Chips
		}
		return out[i].Username < out[j].Username
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// HistoryView reads every persisted record and sorts by highest chips.
func (a *Aggregator) HistoryView(ctx context.Context) ([]HistoryEntry, error) {
	doc, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, 0, len(doc.Players))
	for name, r := range doc.Players {
		out = append(out, HistoryEntry{
			Username:     name,
			Avatar:       r.Avatar,
			HighestChips: r.HighestChips,
			GamesPlayed:  r.GamesPlayed,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].HighestChips != out[j].HighestChips {
			return out[i].HighestChips > out[j].HighestChips
		}
		return out[i].Username < out[j].Username
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// RecordResult applies the update rule for one finished hand and writes the
// document through to the store immediately.
func (a *Aggregator) RecordResult(ctx context.Context, username, avatar string, chips int64) (Record, error) {
	if chips < 0 {
		chips = 0
	}
	doc, err := a.load(ctx)
	if err != nil {
		return Record{}, err
	}

	r, ok := doc.Players[username]
	if !ok {
		r = Record{Avatar: avatar, HighestChips: chips, GamesPlayed: 1}
	} else {
		if avatar != "" {
			r.Avatar = avatar
		}
		r.GamesPlayed++
		if chips > r.HighestChips {
			r.HighestChips = chips
		}
	}
	doc.Players[username] = r

	if err := a.store.Save(ctx, doc); err != nil {
		return r, err
	}
	a.log.Info("stats updated", "username", username, "highest", r.HighestChips, "games", r.GamesPlayed)
	return r, nil
}

// load 解析失败视为空文档（下次写入会重建）；其他错误（比如连接失败）原样返回
func (a *Aggregator) load(ctx context.Context) (Document, error) {
	doc, err := a.store.Load(ctx)
	if errors.Is(err, ErrCorrupt) {
		a.log.Warn("stats document unreadable, starting empty", "err", err)
		return NewDocument(), nil
	}
	if err != nil {
		return NewDocument(), err
	}
	if doc.Players == nil {
		doc.Players = make(map[string]Record)
	}
	return doc, nil
}
