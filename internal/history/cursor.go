package history

import "PokerSync/internal/game/table"

var stageLabels = map[table.Phase]string{
	table.PhasePreflop:  "Pre-flop",
	table.PhaseFlop:     "Flop",
	table.PhaseTurn:     "Turn",
	table.PhaseRiver:    "River",
	table.PhaseShowdown: "Showdown",
}

const defaultStageLabel = "Waiting"

// Index 当前回放位置
func (r *Recorder) Index() int {
	return r.clamp(r.cursor)
}

// Seek moves the cursor to i, clamped to [0, Len-1].
func (r *Recorder) Seek(i int) int {
	r.cursor = r.clamp(i)
	return r.cursor
}

func (r *Recorder) Prev() int {
	return r.Seek(r.Index() - 1)
}

func (r *Recorder) Next() int {
	return r.Seek(r.Index() + 1)
}

// Progress = index / max(len-1, 1)
func (r *Recorder) Progress() float64 {
	den := len(r.frames) - 1
	if den < 1 {
		den = 1
	}
	return float64(r.Index()) / float64(den)
}

// Current returns the frame under the cursor.
func (r *Recorder) Current() (Frame, bool) {
	if len(r.frames) == 0 {
		return Frame{}, false
	}
	return r.frames[r.Index()].clone(), true
}

// StageLabel 帧所处阶段的显示名称；越界或未知阶段返回 "Waiting"
func (r *Recorder) StageLabel(index int) string {
	if index < 0 || index >= len(r.frames) {
		return defaultStageLabel
	}
	return PhaseLabel(r.frames[index].Phase)
}

func PhaseLabel(p table.Phase) string {
	if l, ok := stageLabels[p]; ok {
		return l
	}
	return defaultStageLabel
}

func (r *Recorder) clamp(i int) int {
	if i >= len(r.frames) {
		i = len(r.frames) - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
