// Package presence computes who joined and who left between two consecutive
// player lists.
package presence

// Delta 两次快照之间的玩家变化
type Delta struct {
	Joined []string `json:"joined"`
	Left   []string `json:"left"`
}

func (d Delta) Empty() bool {
	return len(d.Joined) == 0 && len(d.Left) == 0
}

// Diff keeps the order of next for Joined and of prev for Left. self is never
// reported as joined.
func Diff(prev, next []string, self string) Delta {
	before := make(map[string]struct{}, len(prev))
	for _, u := range prev {
		before[u] = struct{}{}
	}
	after := make(map[string]struct{}, len(next))
	for _, u := range next {
		after[u] = struct{}{}
	}

	var d Delta
	for _, u := range next {
		if _, ok := before[u]; ok || u == self {
			continue
		}
		before[u] = struct{}{} // 去重
		d.Joined = append(d.Joined, u)
	}
	for _, u := range prev {
		if _, ok := after[u]; ok {
			continue
		}
		after[u] = struct{}{}
		d.Left = append(d.Left, u)
	}
	return d
}
