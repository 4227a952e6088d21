package game

import (
	"encoding/json"
	"strconv"
)

// Outbound event types. Every server-to-client payload carries one of
// these in its "type" field.
const (
	EventInit          = "INIT"
	EventCountdown     = "COUNTDOWN"
	EventGameStart     = "GAME_START"
	EventNewBall       = "NEW_BALL"
	EventGameOver      = "GAME_OVER"
	EventRoomStats     = "ROOM_STATS"
	EventBuySuccess    = "BUY_SUCCESS"
	EventBalanceUpdate = "BALANCE_UPDATE"
	EventError         = "ERROR"
)

// InitEvent is the room snapshot sent to a connection on join.
type InitEvent struct {
	Type          string `json:"type"`
	Room          int    `json:"room"`
	History       []int  `json:"history"`
	IsGameRunning bool   `json:"isGameRunning"`
	Countdown     int    `json:"countdown"`
	TakenCards    []int  `json:"takenCards"`
}

type CountdownEvent struct {
	Type  string `json:"type"`
	Room  int    `json:"room"`
	Value int    `json:"value"`
}

type GameStartEvent struct {
	Type    string `json:"type"`
	Room    int    `json:"room"`
	Message string `json:"message"`
}

type NewBallEvent struct {
	Type    string `json:"type"`
	Room    int    `json:"room"`
	Ball    int    `json:"ball"`
	History []int  `json:"history"`
}

// GameOverEvent announces a settled round. WinPattern carries the full
// draw history and Pattern the category label; both field names are
// wire-compatible with existing clients.
type GameOverEvent struct {
	Type       string  `json:"type"`
	Room       int     `json:"room"`
	Winner     string  `json:"winner"`
	Amount     float64 `json:"amount"`
	Pattern    Pattern `json:"pattern"`
	WinCard    *Card   `json:"winCard"`
	WinPattern []int   `json:"winPattern"`
}

type BuySuccessEvent struct {
	Type    string  `json:"type"`
	Balance float64 `json:"balance"`
}

type BalanceUpdateEvent struct {
	Type    string  `json:"type"`
	Balance float64 `json:"balance"`
}

type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// RoomTimer is the per-stake countdown-or-playing indicator inside
// ROOM_STATS: the literal string "PLAYING" while a game runs, otherwise
// the countdown seconds as a number.
type RoomTimer struct {
	Playing bool
	Seconds int
}

func (t RoomTimer) MarshalJSON() ([]byte, error) {
	if t.Playing {
		return json.Marshal("PLAYING")
	}
	return []byte(strconv.Itoa(t.Seconds)), nil
}

// RoomStatsEvent is the global snapshot of every stake room, always
// derived fresh from live state.
type RoomStatsEvent struct {
	Type       string            `json:"type"`
	Stats      map[int]int       `json:"stats"`
	Timers     map[int]RoomTimer `json:"timers"`
	TakenCards map[int][]int     `json:"takenCards"`
	Prizes     map[int]float64   `json:"prizes"`
}
