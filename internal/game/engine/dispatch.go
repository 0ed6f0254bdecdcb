package engine

import (
	"fmt"
	"time"

	"PokerSync/internal/events"
	"PokerSync/internal/game/table"
	"PokerSync/internal/presence"
	"PokerSync/internal/session"
)

// dispatch 按事件名分发（调用方持有写锁）
func (e *Engine) dispatch(env events.Envelope) {
	switch env.Event {
	case events.GameUpdate:
		up, err := events.DecodeRoom(env.Data)
		if err != nil {
			e.drop(env, err)
			return
		}
		e.applyRoom(up)

	case events.DealCards:
		cards, err := events.DecodeCards(env.Event, env.Data)
		if err != nil {
			e.drop(env, err)
			return
		}
		e.hole = cards
		e.session.SetHoleCards(cards)
		e.log.Debug("hole cards dealt", "cards", fmt.Sprint(cards))

	case events.CommunityCards:
		cards, err := events.DecodeCards(env.Event, env.Data)
		if err != nil {
			e.drop(env, err)
			return
		}
		// 先缓存，合并进下一份 game_update
		e.pending = cards

	case events.PlayerStats:
		st, err := events.DecodeStats(env.Data)
		if err != nil {
			e.drop(env, err)
			return
		}
		e.session.UpdatePlayerStats(st.Username, st.Chips, st.CurrentBet)

	case events.GameResult:
		res, err := events.DecodeResult(env.Data)
		if err != nil {
			e.drop(env, err)
			return
		}
		e.lastResult = &res
		e.later(func() {
			if e.OnResult != nil {
				e.OnResult(res)
			}
		})

	case events.RoomCreated, events.RoomJoined, events.RoomUpdate, events.GameStart:
		lc, err := events.DecodeLifecycle(env.Event, env.Data)
		if err != nil {
			e.drop(env, err)
			return
		}
		e.applyLifecycle(env.Event, lc)

	case events.Chat, events.SystemMessage, events.Error:
		n, err := events.DecodeNotice(env.Event, env.Data)
		if err != nil {
			e.drop(env, err)
			return
		}
		if env.Event == events.Error {
			e.log.Warn("server error", "message", n.Message)
		}
		e.notice(n)

	case "players_updated", "player_list_updated":
		// room_update 是唯一采用的玩家列表事件
		e.log.Debug("non-canonical player list event ignored", "event", env.Event)

	default:
		e.log.Debug("unknown event", "event", env.Event)
	}
}

func (e *Engine) drop(env events.Envelope, err error) {
	e.log.Warn("dropping malformed event", "event", env.Event, "err", err)
}

func (e *Engine) applyRoom(up events.RoomMessage) {
	snap := up.Snapshot
	if len(e.pending) > 0 && (!up.HasCommunityCards || len(snap.CommunityCards) < len(e.pending)) {
		snap.CommunityCards = append([]table.Card{}, e.pending...)
	} else if !up.HasCommunityCards {
		snap.CommunityCards = e.session.Current().CommunityCards
	}
	e.pending = nil

	if snap.Phase == table.PhaseWaiting {
		e.hole = nil
	}
	e.attachHole(&snap)

	res := e.session.Apply(snap)
	cur := e.session.Current()
	if cur.RoomID != "" {
		e.roomID = cur.RoomID
	}

	e.presence(res)
	e.board.Observe(cur)
	e.history.Record(cur, e.opts.Username, e.hole)
	if res.Finished {
		e.recordStats(cur)
		// 底牌只属于这一手；下一手等 deal_cards 重新发
		e.hole = nil
	}
	e.syncTimer(res, cur)

	e.later(func() {
		if e.OnSnapshot != nil {
			e.OnSnapshot(cur)
		}
	})
}

// attachHole 服务端快照不带本地底牌时补上 deal_cards 收到的牌
func (e *Engine) attachHole(snap *table.RoomSnapshot) {
	if len(e.hole) == 0 {
		return
	}
	for i := range snap.Players {
		p := &snap.Players[i]
		if p.ID == e.opts.Username && len(p.Cards) == 0 {
			p.Cards = append([]table.Card{}, e.hole...)
		}
	}
}

func (e *Engine) applyLifecycle(event string, lc events.Lifecycle) {
	if lc.RoomID != "" {
		e.roomID = lc.RoomID
	}
	res, applied := e.session.Bootstrap(lc.RoomID, lc.Players)
	if applied {
		e.presence(res)
	}
	e.log.Info("room event", "event", event, "room", e.roomID, "players", len(lc.Players))
}

func (e *Engine) presence(res session.AppliedResult) {
	if res.First {
		return
	}
	d := presence.Diff(res.PrevUsernames, res.Usernames, e.opts.Username)
	if d.Empty() {
		return
	}
	now := e.opts.Clock.Now().Format(time.RFC3339)
	for _, name := range d.Joined {
		e.notice(events.Notice{Kind: events.SystemMessage, Message: name + " joined the room", Timestamp: now})
	}
	for _, name := range d.Left {
		e.notice(events.Notice{Kind: events.SystemMessage, Message: name + " left the room", Timestamp: now})
	}
	e.later(func() {
		if e.OnPresence != nil {
			e.OnPresence(d)
		}
	})
}

func (e *Engine) notice(n events.Notice) {
	e.notices = append(e.notices, n)
	if len(e.notices) > maxNotices {
		e.notices = e.notices[len(e.notices)-maxNotices:]
	}
	e.later(func() {
		if e.OnNotice != nil {
			e.OnNotice(n)
		}
	})
}

// recordStats 只更新本地玩家的历史统计。写存储放在释放锁之后执行
func (e *Engine) recordStats(cur table.RoomSnapshot) {
	me, ok := cur.Player(e.opts.Username)
	if !ok {
		e.log.Debug("hand finished without local player")
		return
	}
	username, avatar, chips := me.Username, me.AvatarID, me.Chips
	if avatar == "" {
		avatar = e.opts.Avatar
	}
	e.later(func() {
		ctx, cancel := e.storeCtx()
		defer cancel()
		if _, err := e.board.RecordResult(ctx, username, avatar, chips); err != nil {
			e.log.Error("failed to update player stats", "err", err)
		}
	})
}

// syncTimer 轮到谁就给谁计时；非下注阶段停止
func (e *Engine) syncTimer(res session.AppliedResult, cur table.RoomSnapshot) {
	if !cur.Phase.Betting() || cur.CurrentPlayerID == "" {
		e.timer.Cancel()
		return
	}
	if !res.TurnChanged {
		return
	}
	d := e.opts.TurnDuration
	if cur.TurnSeconds > 0 {
		d = time.Duration(cur.TurnSeconds) * time.Second
	}
	e.timer.OnTurnChanged(cur.CurrentPlayerID, d)
}

// canAutoFold 到期时再确认：仍是本地玩家的回合、未弃牌、处于下注阶段
func (e *Engine) canAutoFold(playerID string) bool {
	if playerID != e.opts.Username {
		return false
	}
	cur := e.session.Current()
	if cur.CurrentPlayerID != playerID || !cur.Phase.Betting() {
		return false
	}
	me, ok := cur.Player(playerID)
	return ok && !me.Folded
}

func (e *Engine) autoFold(playerID string) {
	e.log.Info("turn timed out, folding", "player", playerID)
	if err := e.emit(events.PlayerAction, events.ActionPayload{Action: events.Fold, Username: e.opts.Username}); err != nil {
		e.log.Error("auto fold failed", "err", err)
	}
}
