package api

import (
	"errors"
	"net/http"

	"PokerSync/internal/events"
	"PokerSync/internal/game/engine"
	"PokerSync/internal/game/table"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	eng *engine.Engine
}

func NewHandler(eng *engine.Engine) *Handler {
	return &Handler{eng: eng}
}

type StateResponse struct {
	Username  string             `json:"username"`
	RoomID    string             `json:"roomId"`
	Snapshot  table.RoomSnapshot `json:"snapshot"`
	HoleCards []table.Card       `json:"holeCards"`
}

type ActionRequest struct {
	Action string `json:"action" binding:"required"`
	Amount int64  `json:"amount"`
}

type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

type SeekRequest struct {
	Index *int `json:"index" binding:"required"`
}

type CreateRoomRequest struct {
	RoomID   string               `json:"roomId"`
	Settings *events.RoomSettings `json:"settings"`
}

type JoinRoomRequest struct {
	RoomID string `json:"roomId" binding:"required"`
}

// statusFor 把引擎错误映射成 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, events.ErrInvalidAction):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNotYourTurn), errors.Is(err, engine.ErrNoRoom):
		return http.StatusConflict
	case errors.Is(err, events.ErrNotConnected), errors.Is(err, events.ErrSendBufferFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// GET /state
func (h *Handler) State(c *gin.Context) {
	c.JSON(http.StatusOK, StateResponse{
		Username:  h.eng.Username(),
		RoomID:    h.eng.RoomID(),
		Snapshot:  h.eng.State(),
		HoleCards: h.eng.HoleCards(),
	})
}

// GET /timer
func (h *Handler) Timer(c *gin.Context) {
	c.JSON(http.StatusOK, h.eng.TimerStatus())
}

// GET /leaderboard/room
func (h *Handler) RoomLeaderboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"entries": h.eng.RoomLeaderboard()})
}

// GET /leaderboard/history
func (h *Handler) HistoryLeaderboard(c *gin.Context) {
	entries, err := h.eng.HistoryLeaderboard(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// GET /history
func (h *Handler) History(c *gin.Context) {
	c.JSON(http.StatusOK, h.eng.History())
}

// POST /history/prev
func (h *Handler) HistoryPrev(c *gin.Context) {
	c.JSON(http.StatusOK, h.eng.HistoryPrev())
}

// POST /history/next
func (h *Handler) HistoryNext(c *gin.Context) {
	c.JSON(http.StatusOK, h.eng.HistoryNext())
}

// POST /history/seek  body: {index}
func (h *Handler) HistorySeek(c *gin.Context) {
	var req SeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.eng.HistorySeek(*req.Index))
}

// GET /history/hands
func (h *Handler) Hands(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"hands": h.eng.Hands()})
}

// GET /notices
func (h *Handler) Notices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notices": h.eng.Notices()})
}

// GET /result
func (h *Handler) Result(c *gin.Context) {
	res, ok := h.eng.LastResult()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no result yet"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /actions  body: {action, amount}
func (h *Handler) Act(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	action, err := events.ParseAction(req.Action)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.eng.Act(action, req.Amount); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// POST /chat  body: {message}
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.eng.Chat(req.Message); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// POST /start-game
func (h *Handler) StartGame(c *gin.Context) {
	if err := h.eng.StartGame(); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// POST /next-game
func (h *Handler) NextGame(c *gin.Context) {
	if err := h.eng.NextGame(); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// POST /rooms  body: {roomId?, settings?}
func (h *Handler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	settings := events.DefaultRoomSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}
	id, err := h.eng.CreateRoom(req.RoomID, settings)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomId": id})
}

// POST /rooms/join  body: {roomId}
func (h *Handler) JoinRoom(c *gin.Context) {
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.eng.JoinRoom(req.RoomID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomId": req.RoomID})
}
