package api

import (
	"PokerSync/internal/events"
	"PokerSync/internal/game/engine"
	"PokerSync/internal/game/table"
	"PokerSync/internal/presence"
	"PokerSync/internal/turntimer"
	"PokerSync/internal/websocket"
)

// 推送给本地渲染端的事件名
const (
	PushSnapshot = "snapshot"
	PushPresence = "presence"
	PushTick     = "tick"
	PushNotice   = "notice"
	PushResult   = "result"
)

// TickPayload 倒计时推送
type TickPayload struct {
	PlayerID string  `json:"playerId"`
	Seconds  int     `json:"seconds"`
	Fraction float64 `json:"fraction"`
}

// Bridge forwards engine hooks to the hub. Hooks already set on eng keep
// running before the broadcast. Call it before eng.Run.
func Bridge(eng *engine.Engine, hub *websocket.Hub) {
	prevSnap := eng.OnSnapshot
	eng.OnSnapshot = func(s table.RoomSnapshot) {
		if prevSnap != nil {
			prevSnap(s)
		}
		hub.Broadcast(PushSnapshot, s)
	}

	prevPresence := eng.OnPresence
	eng.OnPresence = func(d presence.Delta) {
		if prevPresence != nil {
			prevPresence(d)
		}
		hub.Broadcast(PushPresence, d)
	}

	prevTick := eng.OnTick
	eng.OnTick = func(t turntimer.Tick) {
		if prevTick != nil {
			prevTick(t)
		}
		hub.Broadcast(PushTick, TickPayload{PlayerID: t.PlayerID, Seconds: t.Seconds(), Fraction: t.Fraction()})
	}

	prevNotice := eng.OnNotice
	eng.OnNotice = func(n events.Notice) {
		if prevNotice != nil {
			prevNotice(n)
		}
		hub.Broadcast(PushNotice, n)
	}

	prevResult := eng.OnResult
	eng.OnResult = func(r events.Result) {
		if prevResult != nil {
			prevResult(r)
		}
		hub.Broadcast(PushResult, r)
	}
}
