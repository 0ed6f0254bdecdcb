package table

import (
	"fmt"
	"strings"
)

// Suit 花色
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Suits 按固定顺序列出四种花色（发牌器建牌用）
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

func (s Suit) Valid() bool {
	switch s {
	case Hearts, Diamonds, Clubs, Spades:
		return true
	}
	return false
}

// Card 定义 (rank 2-14, 14 = A)
type Card struct {
	Suit Suit `json:"suit"`
	Rank int  `json:"rank"`
}

func (c Card) Valid() bool {
	return c.Suit.Valid() && c.Rank >= 2 && c.Rank <= 14
}

func (c Card) String() string {
	return fmtCard(c)
}

func fmtCard(c Card) string {
	suits := map[Suit]string{
		Hearts:   "♥",
		Diamonds: "♦",
		Clubs:    "♣",
		Spades:   "♠",
	}
	ranks := map[int]string{
		11: "J",
		12: "Q",
		13: "K",
		14: "A",
	}
	rankStr, ok := ranks[c.Rank]
	if !ok {
		rankStr = fmt.Sprintf("%d", c.Rank)
	}
	suitStr, ok := suits[c.Suit]
	if !ok {
		suitStr = "?"
	}
	return rankStr + suitStr
}

// ParseRank 解析旧版牌面值 "2".."10","J","Q","K","A"
func ParseRank(v string) (int, bool) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "J":
		return 11, true
	case "Q":
		return 12, true
	case "K":
		return 13, true
	case "A":
		return 14, true
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil || n < 2 || n > 10 {
		return 0, false
	}
	return n, true
}

// Phase 一手牌的阶段
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePreflop  Phase = "preflop"
	PhaseFlop     Phase = "flop"
	PhaseTurn     Phase = "turn"
	PhaseRiver    Phase = "river"
	PhaseShowdown Phase = "showdown"
	PhaseFinished Phase = "finished"
)

var phaseOrder = map[Phase]int{
	PhaseWaiting:  0,
	PhasePreflop:  1,
	PhaseFlop:     2,
	PhaseTurn:     3,
	PhaseRiver:    4,
	PhaseShowdown: 5,
	PhaseFinished: 6,
}

// ParsePhase returns false for anything the client does not know about.
func ParsePhase(s string) (Phase, bool) {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	_, ok := phaseOrder[p]
	return p, ok
}

// Order 阶段在一手牌中的先后位置
func (p Phase) Order() int {
	return phaseOrder[p]
}

// Betting 是否处于下注轮（可以弃牌）
func (p Phase) Betting() bool {
	switch p {
	case PhasePreflop, PhaseFlop, PhaseTurn, PhaseRiver:
		return true
	}
	return false
}

// PlayerSnapshot 单个玩家的权威快照；Cards 只对本地玩家填充
type PlayerSnapshot struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	AvatarID   string `json:"avatar"`
	Chips      int64  `json:"chips"`
	CurrentBet int64  `json:"currentBet"`
	Folded     bool   `json:"folded"`
	HasCards   bool   `json:"hasCards"`
	IsHost     bool   `json:"isHost,omitempty"`
	Cards      []Card `json:"cards,omitempty"`
}

// RoomSnapshot 一次完整的房间状态推送
type RoomSnapshot struct {
	RoomID          string           `json:"roomId,omitempty"`
	Phase           Phase            `json:"phase"`
	Players         []PlayerSnapshot `json:"players"`
	CurrentPlayerID string           `json:"currentPlayerId,omitempty"`
	Pot             int64            `json:"pot"`
	CommunityCards  []Card           `json:"communityCards"`
	TurnSeconds     int              `json:"turnSeconds,omitempty"`
}

// Clone 深拷贝，返回的快照与原快照不共享任何切片
func (s RoomSnapshot) Clone() RoomSnapshot {
	out := s
	out.CommunityCards = append([]Card{}, s.CommunityCards...)
	out.Players = make([]PlayerSnapshot, len(s.Players))
	for i, p := range s.Players {
		out.Players[i] = p.Clone()
	}
	return out
}

func (p PlayerSnapshot) Clone() PlayerSnapshot {
	out := p
	if p.Cards != nil {
		out.Cards = append([]Card{}, p.Cards...)
	}
	return out
}

// Usernames 按快照顺序返回用户名
func (s RoomSnapshot) Usernames() []string {
	out := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		out = append(out, p.Username)
	}
	return out
}

// Player 按 id 查找玩家
func (s RoomSnapshot) Player(id string) (PlayerSnapshot, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerSnapshot{}, false
}

// ValidCommunityCount 公共牌张数只能是 0/3/4/5
func ValidCommunityCount(n int) bool {
	switch n {
	case 0, 3, 4, 5:
		return true
	}
	return false
}
