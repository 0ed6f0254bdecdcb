// Package sim 本地演示用的"服务端"：按脚本打完一手牌，推送与真实服务端相同格式的事件
package sim

import (
	"errors"
	"fmt"

	"PokerSync/internal/events"
	"PokerSync/internal/game/dealer"
	"PokerSync/internal/game/table"
)

// Seat 座位
type Seat struct {
	Username string
	Avatar   string
	Chips    int64
}

// Script describes one scripted hand. Every seat puts Bets[phase] into the pot
// on its turn in that phase; Winner takes the whole pot at the end.
type Script struct {
	RoomID      string
	Viewer      string
	Seats       []Seat
	Bets        map[table.Phase]int64
	Winner      string
	HandName    string
	TurnSeconds int
	Seed        int64
}

// DefaultScript 四人房间 "123456"，底池最终 340
func DefaultScript() Script {
	return Script{
		RoomID: "123456",
		Viewer: "Alice",
		Seats: []Seat{
			{Username: "Alice", Avatar: "avatar1", Chips: 1085},
			{Username: "Bob", Avatar: "avatar2", Chips: 1000},
			{Username: "Carol", Avatar: "avatar3", Chips: 1000},
			{Username: "Dave", Avatar: "avatar4", Chips: 1000},
		},
		Bets: map[table.Phase]int64{
			table.PhasePreflop: 20,
			table.PhaseFlop:    20,
			table.PhaseTurn:    20,
			table.PhaseRiver:   25,
		},
		Winner:      "Alice",
		HandName:    "Flush",
		TurnSeconds: 30,
		Seed:        42,
	}
}

func (s Script) validate() error {
	if len(s.Seats) < 2 {
		return errors.New("sim: need at least two seats")
	}
	found := false
	for _, seat := range s.Seats {
		if seat.Username == s.Winner {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("sim: winner %q is not seated", s.Winner)
	}
	return nil
}

var streets = []table.Phase{table.PhasePreflop, table.PhaseFlop, table.PhaseTurn, table.PhaseRiver}

// Play renders the script into the envelopes a server would push, in order.
func Play(s Script) ([]events.Envelope, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	h := &hand{script: s, dealer: dealer.NewDealer(s.Seed), chips: map[string]int64{}, bets: map[string]int64{}}
	return h.play()
}

type hand struct {
	script    Script
	dealer    *dealer.Dealer
	chips     map[string]int64
	bets      map[string]int64
	hole      map[string][]table.Card
	community []table.Card
	pot       int64
	out       []events.Envelope
	err       error
}

func (h *hand) emit(event string, data any) {
	if h.err != nil {
		return
	}
	env, err := events.NewEnvelope(event, data)
	if err != nil {
		h.err = err
		return
	}
	h.out = append(h.out, env)
}

func (h *hand) names() []string {
	out := make([]string, 0, len(h.script.Seats))
	for _, seat := range h.script.Seats {
		out = append(out, seat.Username)
	}
	return out
}

func (h *hand) play() ([]events.Envelope, error) {
	s := h.script
	for _, seat := range s.Seats {
		h.chips[seat.Username] = seat.Chips
	}

	h.emit(events.RoomJoined, map[string]any{"room_id": s.RoomID, "players": h.players(false)})
	h.emit(events.GameStart, map[string]any{"room_id": s.RoomID, "player_id": s.Viewer})

	h.dealer.NewDeck()
	h.hole = h.dealer.DealHoleCards(h.names())
	h.emit(events.DealCards, map[string]any{"cards": h.hole[s.Viewer]})

	for _, phase := range streets {
		switch phase {
		case table.PhaseFlop:
			h.community = append(h.community, h.dealer.DealCommunity(3)...)
		case table.PhaseTurn, table.PhaseRiver:
			h.community = append(h.community, h.dealer.DealCommunity(1)...)
		}
		if len(h.community) > 0 {
			h.emit(events.CommunityCards, map[string]any{"cards": h.community})
		}
		for name := range h.bets {
			h.bets[name] = 0
		}
		for _, seat := range s.Seats {
			h.update(phase, seat.Username)
			h.bet(seat.Username, s.Bets[phase])
			h.emit(events.PlayerStats, map[string]any{
				"username":    seat.Username,
				"chips":       h.chips[seat.Username],
				"current_bet": h.bets[seat.Username],
			})
		}
	}

	h.emit(events.GameResult, map[string]any{"winners": []map[string]any{{
		"username":  s.Winner,
		"avatar":    h.avatar(s.Winner),
		"hand_name": s.HandName,
		"amount":    h.pot,
	}}})
	h.chips[s.Winner] += h.pot
	h.update(table.PhaseFinished, "")
	return h.out, h.err
}

func (h *hand) bet(name string, amount int64) {
	if amount > h.chips[name] {
		amount = h.chips[name]
	}
	h.chips[name] -= amount
	h.bets[name] += amount
	h.pot += amount
}

func (h *hand) avatar(name string) string {
	for _, seat := range h.script.Seats {
		if seat.Username == name {
			return seat.Avatar
		}
	}
	return ""
}

// players 与服务端一致的玩家列表；withCards 时带上所有人的底牌
func (h *hand) players(withCards bool) []map[string]any {
	out := make([]map[string]any, 0, len(h.script.Seats))
	for i, seat := range h.script.Seats {
		p := map[string]any{
			"username": seat.Username,
			"avatar":   seat.Avatar,
			"chips":    h.chips[seat.Username],
			"bet":      h.bets[seat.Username],
			"status":   "active",
			"isHost":   i == 0,
		}
		if withCards && h.hole[seat.Username] != nil {
			p["cards"] = h.hole[seat.Username]
			p["hasCards"] = true
		}
		out = append(out, p)
	}
	return out
}

func (h *hand) update(phase table.Phase, current string) {
	h.emit(events.GameUpdate, map[string]any{
		"room_id":        h.script.RoomID,
		"status":         string(phase),
		"players":        h.players(true),
		"current_player": current,
		"pot":            h.pot,
		"communityCards": h.community,
		"turn_seconds":   h.script.TurnSeconds,
	})
}
