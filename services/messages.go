package services

import "encoding/json"

// Inbound message types. Every client payload is a tagged JSON object;
// the envelope carries the tag and the per-type structs the fields, so
// dispatch is an exhaustive switch over known kinds.
const (
	MsgAuth       = "AUTH"
	MsgJoinRoom   = "JOIN_ROOM"
	MsgBuyCard    = "BUY_CARD"
	MsgBingoClaim = "BINGO_CLAIM"
)

type envelope struct {
	Type string `json:"type"`
}

type authMessage struct {
	Token string `json:"token"`
}

type joinRoomMessage struct {
	Room  int    `json:"room"`
	Token string `json:"token"`
}

type buyCardMessage struct {
	Room       int `json:"room"`
	CardNumber int `json:"cardNumber"`
}

type bingoClaimMessage struct {
	Room       int `json:"room"`
	CardNumber int `json:"cardNumber"`
}

func decode[T any](raw []byte) (T, error) {
	var msg T
	err := json.Unmarshal(raw, &msg)
	return msg, err
}
