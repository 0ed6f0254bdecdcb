package events

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"PokerSync/internal/game/table"
)

// flexInt 宽松的数字：接受 number / 数字字符串 / null，其他情况取 0
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	*f = 0
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	switch x := v.(type) {
	case float64:
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			*f = flexInt(x)
		}
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			*f = flexInt(n)
		}
	}
	return nil
}

// WireCard accepts both {"suit","rank"} and the legacy {"suit","value":"A"}.
type WireCard struct {
	Suit  string `json:"suit"`
	Rank  any    `json:"rank,omitempty"`
	Value any    `json:"value,omitempty"`
}

// Card converts to the model; ok is false for anything that is not a real card.
func (w WireCard) Card() (table.Card, bool) {
	suit := table.Suit(strings.ToLower(strings.TrimSpace(w.Suit)))
	rank, ok := rankOf(w.Rank)
	if !ok {
		rank, ok = rankOf(w.Value)
	}
	c := table.Card{Suit: suit, Rank: rank}
	return c, ok && c.Valid()
}

func rankOf(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		return int(x), x == math.Trunc(x)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n, true
		}
		return table.ParseRank(x)
	}
	return 0, false
}

// Cards 丢弃无法识别的牌
func Cards(ws []WireCard) []table.Card {
	out := make([]table.Card, 0, len(ws))
	for _, w := range ws {
		if c, ok := w.Card(); ok {
			out = append(out, c)
		}
	}
	return out
}

// WirePlayer 服务端推送的玩家条目
type WirePlayer struct {
	ID         string     `json:"id"`
	PlayerID   string     `json:"player_id"`
	Username   string     `json:"username"`
	Avatar     string     `json:"avatar"`
	Chips      flexInt    `json:"chips"`
	Bet        flexInt    `json:"bet"`
	CurrentBet flexInt    `json:"current_bet"`
	Status     string     `json:"status"`
	Folded     bool       `json:"folded"`
	HasCards   bool       `json:"hasCards"`
	IsHost     bool       `json:"isHost"`
	Cards      []WireCard `json:"cards"`
}

func (w WirePlayer) Player() table.PlayerSnapshot {
	id := w.ID
	if id == "" {
		id = w.PlayerID
	}
	if id == "" {
		id = w.Username
	}
	bet := int64(w.Bet)
	if bet == 0 {
		bet = int64(w.CurrentBet)
	}
	p := table.PlayerSnapshot{
		ID:         id,
		Username:   w.Username,
		AvatarID:   w.Avatar,
		Chips:      int64(w.Chips),
		CurrentBet: bet,
		Folded:     w.Folded || strings.EqualFold(w.Status, "folded"),
		HasCards:   w.HasCards,
		IsHost:     w.IsHost,
		Cards:      Cards(w.Cards),
	}
	if p.Username == "" {
		p.Username = id
	}
	if len(p.Cards) == 0 {
		p.Cards = nil
	}
	return p
}

func players(ws []WirePlayer) []table.PlayerSnapshot {
	out := make([]table.PlayerSnapshot, 0, len(ws))
	for _, w := range ws {
		p := w.Player()
		if p.ID == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// RoomPayload game_update 的载荷
type RoomPayload struct {
	RoomID             string       `json:"room_id"`
	RoomIDCamel        string       `json:"roomId"`
	Room               string       `json:"room"`
	Status             string       `json:"status"`
	Players            []WirePlayer `json:"players"`
	CurrentPlayer      string       `json:"current_player"`
	Pot                flexInt      `json:"pot"`
	CommunityCards     []WireCard   `json:"communityCards"`
	CommunityCardsKind []WireCard   `json:"community_cards"`
	TurnSeconds        flexInt      `json:"turn_seconds"`
}

// RoomMessage is a decoded game_update. HasCommunityCards is false when the
// payload did not carry the community field at all.
type RoomMessage struct {
	Snapshot          table.RoomSnapshot
	HasCommunityCards bool
}

// DecodeRoom 解析 game_update；字段缺失时取默认值，未知阶段按 waiting 处理
func DecodeRoom(raw json.RawMessage) (RoomMessage, error) {
	var p RoomPayload
	if err := unmarshal(raw, &p); err != nil {
		return RoomMessage{}, fmt.Errorf("decode %s: %w", GameUpdate, err)
	}
	var keys map[string]json.RawMessage
	_ = json.Unmarshal(raw, &keys)
	_, camel := keys["communityCards"]
	_, snake := keys["community_cards"]

	phase, ok := table.ParsePhase(p.Status)
	if !ok {
		phase = table.PhaseWaiting
	}
	community := p.CommunityCards
	if !camel && snake {
		community = p.CommunityCardsKind
	}
	snap := table.RoomSnapshot{
		RoomID:          firstNonEmpty(p.RoomID, p.RoomIDCamel, p.Room),
		Phase:           phase,
		Players:         players(p.Players),
		CurrentPlayerID: p.CurrentPlayer,
		Pot:             int64(p.Pot),
		CommunityCards:  Cards(community),
		TurnSeconds:     int(p.TurnSeconds),
	}
	return RoomMessage{Snapshot: snap, HasCommunityCards: camel || snake}, nil
}

// CardsPayload deal_cards / community_cards
type CardsPayload struct {
	Cards []WireCard `json:"cards"`
}

func DecodeCards(event string, raw json.RawMessage) ([]table.Card, error) {
	var p CardsPayload
	if err := unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode %s: %w", event, err)
	}
	return Cards(p.Cards), nil
}

// StatsPayload player_stats
type StatsPayload struct {
	Username   string  `json:"username"`
	Chips      flexInt `json:"chips"`
	CurrentBet flexInt `json:"current_bet"`
}

type Stats struct {
	Username   string
	Chips      int64
	CurrentBet int64
}

func DecodeStats(raw json.RawMessage) (Stats, error) {
	var p StatsPayload
	if err := unmarshal(raw, &p); err != nil {
		return Stats{}, fmt.Errorf("decode %s: %w", PlayerStats, err)
	}
	return Stats{Username: p.Username, Chips: int64(p.Chips), CurrentBet: int64(p.CurrentBet)}, nil
}

// Winner 一位赢家
type Winner struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	HandName string `json:"hand_name"`
	Amount   int64  `json:"amount"`
}

// Result game_result 仅用于展示，不参与统计
type Result struct {
	Winners []Winner `json:"winners"`
}

func DecodeResult(raw json.RawMessage) (Result, error) {
	var p struct {
		Winners []struct {
			Username string  `json:"username"`
			Avatar   string  `json:"avatar"`
			HandName string  `json:"hand_name"`
			Amount   flexInt `json:"amount"`
		} `json:"winners"`
	}
	if err := unmarshal(raw, &p); err != nil {
		return Result{}, fmt.Errorf("decode %s: %w", GameResult, err)
	}
	res := Result{Winners: make([]Winner, 0, len(p.Winners))}
	for _, w := range p.Winners {
		res.Winners = append(res.Winners, Winner{
			Username: w.Username,
			Avatar:   w.Avatar,
			HandName: w.HandName,
			Amount:   int64(w.Amount),
		})
	}
	return res, nil
}

// Lifecycle room_created / room_joined / room_update / game_start
type Lifecycle struct {
	RoomID   string
	PlayerID string
	// Players is nil when the payload carried no player list.
	Players []table.PlayerSnapshot
}

func DecodeLifecycle(event string, raw json.RawMessage) (Lifecycle, error) {
	var p struct {
		RoomID      string        `json:"room_id"`
		RoomIDCamel string        `json:"roomId"`
		Room        string        `json:"room"`
		PlayerID    string        `json:"player_id"`
		Players     *[]WirePlayer `json:"players"`
	}
	if err := unmarshal(raw, &p); err != nil {
		return Lifecycle{}, fmt.Errorf("decode %s: %w", event, err)
	}
	lc := Lifecycle{
		RoomID:   firstNonEmpty(p.RoomID, p.RoomIDCamel, p.Room),
		PlayerID: p.PlayerID,
	}
	if p.Players != nil {
		lc.Players = players(*p.Players)
	}
	return lc, nil
}

// Notice 聊天 / 系统 / 错误消息
type Notice struct {
	Kind      string `json:"kind"`
	Username  string `json:"username,omitempty"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

func DecodeNotice(event string, raw json.RawMessage) (Notice, error) {
	var p struct {
		Username  string `json:"username"`
		Message   string `json:"message"`
		Timestamp string `json:"timestamp"`
	}
	if err := unmarshal(raw, &p); err != nil {
		return Notice{}, fmt.Errorf("decode %s: %w", event, err)
	}
	return Notice{Kind: event, Username: p.Username, Message: p.Message, Timestamp: p.Timestamp}, nil
}

// unmarshal 空载荷视为 {}
func unmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}
