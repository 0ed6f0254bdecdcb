package engine

import (
	"context"

	"PokerSync/internal/events"
	"PokerSync/internal/game/table"
	"PokerSync/internal/history"
	"PokerSync/internal/leaderboard"
	"PokerSync/internal/turntimer"
)

// HistoryView 回放面板需要的全部信息
type HistoryView struct {
	HandID   string          `json:"handId"`
	Frames   []history.Frame `json:"frames"`
	Index    int             `json:"index"`
	Progress float64         `json:"progress"`
	Stage    string          `json:"stage"`
	Closed   bool            `json:"closed"`
}

func (e *Engine) Username() string {
	return e.opts.Username
}

func (e *Engine) RoomID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.roomID
}

// State 当前房间快照（副本）
func (e *Engine) State() table.RoomSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.session.Current()
}

func (e *Engine) HoleCards() []table.Card {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]table.Card{}, e.hole...)
}

func (e *Engine) TimerStatus() turntimer.Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.timer.Status()
}

// RoomLeaderboard 当前房间排行（按筹码）
func (e *Engine) RoomLeaderboard() []leaderboard.RoomEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.board.RoomView(e.session.Current().Players)
}

// HistoryLeaderboard reads the persisted stats document. It only touches the
// store, so it runs without the engine lock.
func (e *Engine) HistoryLeaderboard(ctx context.Context) ([]leaderboard.HistoryEntry, error) {
	return e.board.HistoryView(ctx)
}

func (e *Engine) History() HistoryView {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.historyView()
}

func (e *Engine) historyView() HistoryView {
	idx := e.history.Index()
	return HistoryView{
		HandID:   e.history.HandID(),
		Frames:   e.history.Frames(),
		Index:    idx,
		Progress: e.history.Progress(),
		Stage:    e.history.StageLabel(idx),
		Closed:   e.history.Closed(),
	}
}

func (e *Engine) HistoryPrev() HistoryView {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Prev()
	return e.historyView()
}

func (e *Engine) HistoryNext() HistoryView {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Next()
	return e.historyView()
}

func (e *Engine) HistorySeek(i int) HistoryView {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Seek(i)
	return e.historyView()
}

// Hands 已归档的历史手牌
func (e *Engine) Hands() []history.Hand {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.history.Hands()
}

func (e *Engine) Notices() []events.Notice {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]events.Notice{}, e.notices...)
}

// LastResult 最近一次 game_result（仅展示）
func (e *Engine) LastResult() (events.Result, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.lastResult == nil {
		return events.Result{}, false
	}
	return *e.lastResult, true
}
