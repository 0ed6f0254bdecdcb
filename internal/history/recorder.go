// Package history keeps a privacy-filtered log of one hand, one frame per
// phase, and a cursor for stepping through it.
package history

import (
	"time"

	"PokerSync/internal/game/table"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Frame is an immutable history entry; callers only ever receive copies.
type Frame struct {
	HandID     string             `json:"handId"`
	Seq        int                `json:"seq"`
	Phase      table.Phase        `json:"phase"`
	Snapshot   table.RoomSnapshot `json:"snapshot"`
	RecordedAt time.Time          `json:"recordedAt"`
}

func (f Frame) clone() Frame {
	f.Snapshot = f.Snapshot.Clone()
	return f
}

// Hand 一手完整（或被新一手打断）的记录
type Hand struct {
	ID     string  `json:"id"`
	Frames []Frame `json:"frames"`
	// Complete 是否收到了 finished（有合成的 showdown 帧）
	Complete bool `json:"complete"`
}

type Recorder struct {
	clock   clockwork.Clock
	keep    int
	handID  string
	frames  []Frame
	closed  bool
	cursor  int
	archive []Hand
}

// NewRecorder keepHands bounds how many finished hands are archived.
func NewRecorder(clock clockwork.Clock, keepHands int) *Recorder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if keepHands < 0 {
		keepHands = 0
	}
	return &Recorder{clock: clock, keep: keepHands}
}

// Record applies one snapshot. It reports whether a frame was written.
//
// Frames never contain another player's cards: the snapshot is copied and
// filtered before it touches the buffer.
func (r *Recorder) Record(snap table.RoomSnapshot, localPlayerID string, localHoleCards []table.Card) bool {
	phase := snap.Phase
	if phase == table.PhaseWaiting || phase == "" {
		return false
	}

	// 新的一手：上一帧不是 preflop 时清空缓冲
	if phase == table.PhasePreflop && (len(r.frames) == 0 || r.last().Phase != table.PhasePreflop) {
		r.startHand()
	}

	if phase == table.PhaseFinished {
		if r.closed {
			return false
		}
		f := r.build(snap, table.PhaseShowdown, localPlayerID, localHoleCards)
		if len(f.Snapshot.CommunityCards) == 0 && len(r.frames) > 0 {
			f.Snapshot.CommunityCards = append([]table.Card{}, r.last().Snapshot.CommunityCards...)
		}
		r.push(f)
		r.closed = true
		return true
	}

	if r.closed {
		return false
	}
	if len(r.frames) > 0 && phase.Order() < r.last().Phase.Order() {
		// 阶段倒退，丢弃乱序快照
		return false
	}

	f := r.build(snap, phase, localPlayerID, localHoleCards)
	if len(r.frames) > 0 && r.last().Phase == phase {
		// 同一阶段只保留最新状态
		f.Seq = r.last().Seq
		r.frames[len(r.frames)-1] = f
		return true
	}
	r.push(f)
	return true
}

func (r *Recorder) build(snap table.RoomSnapshot, phase table.Phase, localPlayerID string, hole []table.Card) Frame {
	if r.handID == "" {
		r.handID = uuid.NewString()
	}
	s := filtered(snap, localPlayerID, hole)
	s.Phase = phase
	return Frame{
		HandID:     r.handID,
		Seq:        len(r.frames),
		Phase:      phase,
		Snapshot:   s,
		RecordedAt: r.clock.Now(),
	}
}

// filtered builds a fresh snapshot field by field; player cards are only
// copied for the local player.
func filtered(snap table.RoomSnapshot, localPlayerID string, hole []table.Card) table.RoomSnapshot {
	out := table.RoomSnapshot{
		RoomID:          snap.RoomID,
		Phase:           snap.Phase,
		CurrentPlayerID: snap.CurrentPlayerID,
		Pot:             snap.Pot,
		TurnSeconds:     snap.TurnSeconds,
		CommunityCards:  append([]table.Card{}, snap.CommunityCards...),
		Players:         make([]table.PlayerSnapshot, 0, len(snap.Players)),
	}
	for _, p := range snap.Players {
		fp := table.PlayerSnapshot{
			ID:         p.ID,
			Username:   p.Username,
			AvatarID:   p.AvatarID,
			Chips:      p.Chips,
			CurrentBet: p.CurrentBet,
			Folded:     p.Folded,
			HasCards:   p.HasCards || len(p.Cards) > 0,
			IsHost:     p.IsHost,
		}
		if p.ID == localPlayerID && localPlayerID != "" {
			own := hole
			if len(own) == 0 {
				own = p.Cards
			}
			if len(own) > 0 {
				fp.Cards = append([]table.Card{}, own...)
				fp.HasCards = true
			}
		}
		out.Players = append(out.Players, fp)
	}
	return out
}

func (r *Recorder) startHand() {
	if len(r.frames) > 0 {
		r.archiveHand()
	}
	r.frames = nil
	r.closed = false
	r.cursor = 0
	r.handID = uuid.NewString()
}

func (r *Recorder) archiveHand() {
	if r.keep == 0 {
		return
	}
	h := Hand{ID: r.handID, Frames: make([]Frame, len(r.frames)), Complete: r.closed}
	for i, f := range r.frames {
		h.Frames[i] = f.clone()
	}
	r.archive = append(r.archive, h)
	if len(r.archive) > r.keep {
		r.archive = r.archive[len(r.archive)-r.keep:]
	}
}

func (r *Recorder) push(f Frame) {
	r.frames = append(r.frames, f)
}

func (r *Recorder) last() Frame {
	return r.frames[len(r.frames)-1]
}

// Len 当前一手的帧数
func (r *Recorder) Len() int {
	return len(r.frames)
}

// HandID of the hand currently buffered, empty before the first frame.
func (r *Recorder) HandID() string {
	return r.handID
}

// Closed 是否已写入合成 showdown 帧（等待下一手）
func (r *Recorder) Closed() bool {
	return r.closed
}

// Frames 返回当前一手所有帧的副本
func (r *Recorder) Frames() []Frame {
	out := make([]Frame, len(r.frames))
	for i, f := range r.frames {
		out[i] = f.clone()
	}
	return out
}

// Hands returns archived hands, oldest first.
func (r *Recorder) Hands() []Hand {
	out := make([]Hand, len(r.archive))
	for i, h := range r.archive {
		out[i] = Hand{ID: h.ID, Complete: h.Complete, Frames: make([]Frame, len(h.Frames))}
		for j, f := range h.Frames {
			out[i].Frames[j] = f.clone()
		}
	}
	return out
}
