package session

import (
	"PokerSync/internal/game/table"
)

// AppliedResult 描述一次快照应用前后的变化，供 presence / turntimer / history 使用
type AppliedResult struct {
	PrevPhase     table.Phase
	Phase         table.Phase
	PrevUsernames []string
	Usernames     []string

	PrevCurrentPlayerID string
	CurrentPlayerID     string

	// First 表示这是会话中的第一份玩家列表（不做加入/离开提示）
	First        bool
	PhaseChanged bool
	TurnChanged  bool
	// Finished 仅在进入 finished 的那一次为 true
	Finished bool
	// HandStarted 仅在进入 preflop 的那一次为 true
	HandStarted bool
}

// Store is the canonical local mirror of the remote room. The remote side is
// authoritative: every Apply replaces players and scalar fields wholesale.
type Store struct {
	localID string
	cur     table.RoomSnapshot
	// 是否收到过完整快照；之前只接受 Bootstrap 的玩家列表
	synced     bool
	hasPlayers bool

	OnPhaseChanged func(prev, next table.Phase, snap table.RoomSnapshot)
}

// NewStore localID 是本地玩家 id（与用户名相同时传用户名即可）
func NewStore(localID string) *Store {
	return &Store{
		localID: localID,
		cur:     table.RoomSnapshot{Phase: table.PhaseWaiting},
	}
}

func (s *Store) LocalID() string {
	return s.localID
}

// Synced reports whether a full room snapshot has been applied.
func (s *Store) Synced() bool {
	return s.synced
}

// Current 返回只读副本
func (s *Store) Current() table.RoomSnapshot {
	return s.cur.Clone()
}

func (s *Store) Phase() table.Phase {
	return s.cur.Phase
}

func (s *Store) CurrentPlayerID() string {
	return s.cur.CurrentPlayerID
}

// Apply replaces the mirrored state with snap after normalizing it.
func (s *Store) Apply(snap table.RoomSnapshot) AppliedResult {
	prev := s.cur
	next := snap.Clone()
	if next.RoomID == "" {
		next.RoomID = prev.RoomID
	}
	if p, ok := table.ParsePhase(string(next.Phase)); ok {
		next.Phase = p
	} else {
		next.Phase = table.PhaseWaiting
	}
	if next.Pot < 0 {
		next.Pot = 0
	}
	for i := range next.Players {
		s.normalizePlayer(&next.Players[i])
	}
	next.CommunityCards = normalizeCommunity(prev, next)

	res := s.diff(prev, next)
	s.cur = next
	s.synced = true
	s.hasPlayers = true

	if res.PhaseChanged && s.OnPhaseChanged != nil {
		s.OnPhaseChanged(res.PrevPhase, res.Phase, s.cur.Clone())
	}
	return res
}

// Bootstrap seeds the room id and player list from room lifecycle events
// (created / joined / room_update / game_start). Once a full snapshot has been
// applied the snapshot stream is authoritative and only the room id is taken.
func (s *Store) Bootstrap(roomID string, players []table.PlayerSnapshot) (AppliedResult, bool) {
	if roomID != "" {
		s.cur.RoomID = roomID
	}
	if s.synced || players == nil {
		return AppliedResult{}, false
	}
	prev := s.cur
	next := s.cur.Clone()
	next.Players = make([]table.PlayerSnapshot, len(players))
	for i, p := range players {
		next.Players[i] = p.Clone()
		s.normalizePlayer(&next.Players[i])
	}
	res := s.diff(prev, next)
	s.cur = next
	s.hasPlayers = true
	return res, true
}

// UpdatePlayerStats 刷新单个玩家的筹码与当前下注（player_stats 事件）
func (s *Store) UpdatePlayerStats(username string, chips, currentBet int64) bool {
	for i := range s.cur.Players {
		p := &s.cur.Players[i]
		if p.Username != username {
			continue
		}
		p.Chips = clampNonNeg(chips)
		p.CurrentBet = clampNonNeg(currentBet)
		return true
	}
	return false
}

// SetHoleCards attaches the local viewer's own cards to the mirrored snapshot.
func (s *Store) SetHoleCards(cards []table.Card) {
	for i := range s.cur.Players {
		p := &s.cur.Players[i]
		if p.ID != s.localID {
			continue
		}
		p.Cards = append([]table.Card{}, cards...)
		p.HasCards = len(cards) > 0
	}
}

func (s *Store) normalizePlayer(p *table.PlayerSnapshot) {
	if p.ID == "" {
		p.ID = p.Username
	}
	if p.Username == "" {
		p.Username = p.ID
	}
	p.Chips = clampNonNeg(p.Chips)
	p.CurrentBet = clampNonNeg(p.CurrentBet)
	if p.ID != s.localID {
		// 其他玩家的底牌永远不进入本地状态
		if len(p.Cards) > 0 {
			p.HasCards = true
		}
		p.Cards = nil
		return
	}
	if len(p.Cards) > 0 {
		p.HasCards = true
	}
}

func (s *Store) diff(prev, next table.RoomSnapshot) AppliedResult {
	res := AppliedResult{
		PrevPhase:           prev.Phase,
		Phase:               next.Phase,
		PrevUsernames:       prev.Usernames(),
		Usernames:           next.Usernames(),
		PrevCurrentPlayerID: prev.CurrentPlayerID,
		CurrentPlayerID:     next.CurrentPlayerID,
		First:               !s.hasPlayers,
		PhaseChanged:        prev.Phase != next.Phase,
	}
	res.TurnChanged = prev.CurrentPlayerID != next.CurrentPlayerID ||
		(res.PhaseChanged && next.CurrentPlayerID != "")
	res.Finished = res.PhaseChanged && next.Phase == table.PhaseFinished
	res.HandStarted = res.PhaseChanged && next.Phase == table.PhasePreflop
	return res
}

// normalizeCommunity keeps the community cards in {0,3,4,5}, empty at the start
// of a hand and never shrinking while the same hand moves forward.
func normalizeCommunity(prev, next table.RoomSnapshot) []table.Card {
	cards := make([]table.Card, 0, len(next.CommunityCards))
	for _, c := range next.CommunityCards {
		if c.Valid() {
			cards = append(cards, c)
		}
	}
	switch {
	case len(cards) > 5:
		cards = cards[:5]
	case len(cards) < 3:
		cards = cards[:0]
	}

	if next.Phase == table.PhasePreflop || next.Phase == table.PhaseWaiting {
		return []table.Card{}
	}
	if sameHand(prev.Phase, next.Phase) && len(cards) < len(prev.CommunityCards) {
		return append([]table.Card{}, prev.CommunityCards...)
	}
	return cards
}

// sameHand 后一阶段不早于前一阶段，且前一阶段属于进行中的一手牌
func sameHand(prev, next table.Phase) bool {
	if prev == table.PhaseWaiting || prev == "" {
		return false
	}
	if prev == table.PhaseFinished && next != table.PhaseFinished {
		return false
	}
	return next.Order() >= prev.Order()
}

func clampNonNeg(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
