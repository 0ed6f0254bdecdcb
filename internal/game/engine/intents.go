package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"PokerSync/internal/events"
)

var (
	ErrNoRoom      = errors.New("not in a room")
	ErrNotYourTurn = errors.New("not your turn")
)

// emit 调用方可以持有锁：Emitter 不会阻塞
func (e *Engine) emit(event string, data any) error {
	if e.emitter == nil {
		return events.ErrNotConnected
	}
	if err := e.emitter.Emit(events.Outgoing{Event: event, Data: data}); err != nil {
		return fmt.Errorf("emit %s: %w", event, err)
	}
	return nil
}

// NewRoomID 六位数字房间号
func NewRoomID() string {
	return fmt.Sprintf("%06d", 100000+rand.Intn(900000))
}

// CreateRoom announces a new room and joins it as host with settings. An empty
// roomID gets a generated six digit id, which is returned.
func (e *Engine) CreateRoom(roomID string, settings events.RoomSettings) (string, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		roomID = NewRoomID()
	}
	settings = settings.Normalize()

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.emit(events.CreateRoom, events.CreateRoomPayload{
		RoomID:   roomID,
		Username: e.opts.Username,
		Avatar:   e.opts.Avatar,
	}); err != nil {
		return "", err
	}
	if err := e.emit(events.JoinGame, events.JoinPayload{
		Username:     e.opts.Username,
		Room:         roomID,
		Avatar:       e.opts.Avatar,
		IsHost:       true,
		RoomSettings: &settings,
	}); err != nil {
		return "", err
	}
	e.roomID = roomID
	e.log.Info("room created", "room", roomID, "settings", fmt.Sprintf("%+v", settings))
	return roomID, nil
}

// JoinRoom 以普通玩家身份加入
func (e *Engine) JoinRoom(roomID string) error {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return ErrNoRoom
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.emit(events.JoinGame, events.JoinPayload{
		Username: e.opts.Username,
		Room:     roomID,
		Avatar:   e.opts.Avatar,
	}); err != nil {
		return err
	}
	e.roomID = roomID
	return nil
}

func (e *Engine) StartGame() error {
	return e.roomIntent(events.StartGame)
}

// NextGame 请求开始下一局
func (e *Engine) NextGame() error {
	return e.roomIntent(events.NextGame)
}

func (e *Engine) roomIntent(event string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.roomID == "" {
		return ErrNoRoom
	}
	return e.emit(event, events.RoomPayloadOut{Room: e.roomID, Username: e.opts.Username})
}

// Act validates and sends a betting action. Only the local player's own turn
// during a betting phase is accepted; the countdown stops once the action is
// sent.
func (e *Engine) Act(action events.Action, amount int64) error {
	p := events.ActionPayload{Action: action, Amount: amount, Username: e.opts.Username}
	if err := p.Validate(); err != nil {
		return err
	}
	// 统一成线上拼写（allin / all_in -> all-in）
	p.Action, _ = events.ParseAction(string(action))

	e.mu.Lock()
	defer e.mu.Unlock()
	cur := e.session.Current()
	if !cur.Phase.Betting() || cur.CurrentPlayerID != e.opts.Username {
		return ErrNotYourTurn
	}
	if err := e.emit(events.PlayerAction, p); err != nil {
		return err
	}
	e.timer.Cancel()
	return nil
}

// Chat 发送聊天消息
func (e *Engine) Chat(message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return fmt.Errorf("%w: empty chat message", events.ErrInvalidAction)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.roomID == "" {
		return ErrNoRoom
	}
	return e.emit(events.Chat, events.ChatPayload{Username: e.opts.Username, Room: e.roomID, Message: message})
}
