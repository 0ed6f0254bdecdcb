package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCardString(t *testing.T) {
	assert.Equal(t, "A♠", Card{Suit: Spades, Rank: 14}.String())
	assert.Equal(t, "10♥", Card{Suit: Hearts, Rank: 10}.String())
	assert.Equal(t, "2?", Card{Suit: "stars", Rank: 2}.String())
}

func TestParseRank(t *testing.T) {
	cases := map[string]int{"2": 2, "10": 10, "J": 11, "q": 12, "K": 13, "A": 14}
	for in, want := range cases {
		got, ok := ParseRank(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "1", "11", "Z"} {
		_, ok := ParseRank(bad)
		assert.False(t, ok, bad)
	}
}

func TestParsePhase(t *testing.T) {
	p, ok := ParsePhase(" Flop ")
	assert.True(t, ok)
	assert.Equal(t, PhaseFlop, p)

	_, ok = ParsePhase("playing")
	assert.False(t, ok)

	assert.Less(t, PhasePreflop.Order(), PhaseRiver.Order())
	assert.True(t, PhaseTurn.Betting())
	assert.False(t, PhaseShowdown.Betting())
}

// Clone 之后修改副本不能影响原快照
func TestSnapshotCloneIsDeep(t *testing.T) {
	orig := RoomSnapshot{
		Phase:          PhaseFlop,
		CommunityCards: []Card{{Hearts, 2}, {Clubs, 3}, {Spades, 4}},
		Players: []PlayerSnapshot{
			{ID: "a", Username: "a", Cards: []Card{{Hearts, 14}, {Spades, 14}}},
		},
	}
	cp := orig.Clone()
	cp.CommunityCards[0].Rank = 9
	cp.Players[0].Cards[0].Rank = 9
	cp.Players[0].Chips = 5

	assert.Equal(t, 2, orig.CommunityCards[0].Rank)
	assert.Equal(t, 14, orig.Players[0].Cards[0].Rank)
	assert.Equal(t, int64(0), orig.Players[0].Chips)
}

func TestUsernamesAndPlayer(t *testing.T) {
	s := RoomSnapshot{Players: []PlayerSnapshot{{ID: "1", Username: "alice"}, {ID: "2", Username: "bob"}}}
	assert.Equal(t, []string{"alice", "bob"}, s.Usernames())
	p, ok := s.Player("2")
	assert.True(t, ok)
	assert.Equal(t, "bob", p.Username)
	_, ok = s.Player("3")
	assert.False(t, ok)
}

func TestValidCommunityCount(t *testing.T) {
	for n := 0; n <= 6; n++ {
		want := n == 0 || n == 3 || n == 4 || n == 5
		assert.Equal(t, want, ValidCommunityCount(n), n)
	}
}
