// Package events 定义与服务端之间的推送事件（名称、载荷）以及入站载荷到本地模型的转换
package events

import (
	"encoding/json"
)

// 入站事件
const (
	GameUpdate     = "game_update"
	DealCards      = "deal_cards"
	CommunityCards = "community_cards"
	PlayerStats    = "player_stats"
	GameResult     = "game_result"
	RoomCreated    = "room_created"
	RoomJoined     = "room_joined"
	RoomUpdate     = "room_update"
	GameStart      = "game_start"
	Chat           = "chat_message"
	SystemMessage  = "system_message"
	Error          = "error"
)

// 出站事件
const (
	CreateRoom   = "create_room"
	JoinGame     = "join_game"
	StartGame    = "start_game"
	PlayerAction = "player_action"
	NextGame     = "next_game"
)

// Envelope is one inbound event. Data stays raw until the engine picks the
// payload type by event name.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Outgoing 出站消息
type Outgoing struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// NewEnvelope encodes data as an inbound envelope (used by the demo authority
// and tests).
func NewEnvelope(event string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: raw}, nil
}

// DecodeEnvelope parses one text frame {"event":..., "data":...}.
func DecodeEnvelope(b []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}
