package events

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidAction = errors.New("invalid action")

// Action 玩家动作
type Action string

const (
	Fold  Action = "fold"
	Check Action = "check"
	Call  Action = "call"
	Raise Action = "raise"
	AllIn Action = "all-in"
)

// ParseAction accepts the wire spelling plus "allin" / "all_in".
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fold":
		return Fold, nil
	case "check":
		return Check, nil
	case "call":
		return Call, nil
	case "raise":
		return Raise, nil
	case "all-in", "allin", "all_in":
		return AllIn, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// RoomSettings 创建房间时的设置
type RoomSettings struct {
	SmallBlind   int64 `json:"small_blind" mapstructure:"small_blind"`
	BigBlind     int64 `json:"big_blind" mapstructure:"big_blind"`
	AllInRounds  int   `json:"all_in_rounds" mapstructure:"all_in_rounds"`
	InitialChips int64 `json:"initial_chips" mapstructure:"initial_chips"`
}

func DefaultRoomSettings() RoomSettings {
	return RoomSettings{SmallBlind: 10, BigBlind: 20, AllInRounds: 3, InitialChips: 1000}
}

// Normalize 非法值回落到默认值，大盲不小于小盲
func (s RoomSettings) Normalize() RoomSettings {
	d := DefaultRoomSettings()
	if s.SmallBlind <= 0 {
		s.SmallBlind = d.SmallBlind
	}
	if s.BigBlind <= 0 {
		s.BigBlind = d.BigBlind
	}
	if s.BigBlind < s.SmallBlind {
		s.BigBlind = s.SmallBlind
	}
	if s.AllInRounds <= 0 {
		s.AllInRounds = d.AllInRounds
	}
	if s.InitialChips <= 0 {
		s.InitialChips = d.InitialChips
	}
	return s
}

type CreateRoomPayload struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// JoinPayload join_game；创建者加入时带上房间设置
type JoinPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
	Avatar   string `json:"avatar"`
	IsHost   bool   `json:"is_host"`
	*RoomSettings
}

type RoomPayloadOut struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

type ActionPayload struct {
	Action   Action `json:"action"`
	Amount   int64  `json:"amount,omitempty"`
	Username string `json:"username"`
}

// Validate raise 需要正数金额，其他动作不带金额
func (p ActionPayload) Validate() error {
	if _, err := ParseAction(string(p.Action)); err != nil {
		return err
	}
	if p.Action == Raise && p.Amount <= 0 {
		return fmt.Errorf("%w: raise amount must be positive", ErrInvalidAction)
	}
	if p.Action != Raise && p.Amount != 0 {
		return fmt.Errorf("%w: %s takes no amount", ErrInvalidAction, p.Action)
	}
	return nil
}

type ChatPayload struct {
	Username string `json:"username"`
	Room     string `json:"room"`
	Message  string `json:"message"`
}
