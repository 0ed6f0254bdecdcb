package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffJoinedAndLeft(t *testing.T) {
	d := Diff([]string{"alice", "bob", "carol"}, []string{"alice", "dave", "carol", "erin"}, "alice")
	assert.Equal(t, []string{"dave", "erin"}, d.Joined)
	assert.Equal(t, []string{"bob"}, d.Left)
	assert.False(t, d.Empty())
}

func TestDiffExcludesSelf(t *testing.T) {
	d := Diff(nil, []string{"bob", "me", "carol"}, "me")
	assert.Equal(t, []string{"bob", "carol"}, d.Joined)
	assert.NotContains(t, d.Joined, "me")
	assert.Empty(t, d.Left)
}

// 自己离开仍然算 left
func TestDiffSelfCanLeave(t *testing.T) {
	d := Diff([]string{"me", "bob"}, []string{"bob"}, "me")
	assert.Empty(t, d.Joined)
	assert.Equal(t, []string{"me"}, d.Left)
}

func TestDiffNoChange(t *testing.T) {
	d := Diff([]string{"a", "b"}, []string{"b", "a"}, "a")
	assert.True(t, d.Empty())
}

func TestDiffDuplicatesReportedOnce(t *testing.T) {
	d := Diff(nil, []string{"x", "x"}, "")
	assert.Equal(t, []string{"x"}, d.Joined)
}
