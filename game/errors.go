package game

import "errors"

// Validation, state-conflict and collaborator errors surfaced to the
// session layer. The websocket handler maps these to short ERROR
// messages for the originating connection only.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrCardNotFound        = errors.New("card not found")
	ErrCardTaken           = errors.New("card already taken")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPurchasesClosed     = errors.New("card purchases are closed for this round")
	ErrGameNotRunning      = errors.New("game is not running")
	ErrNoCard              = errors.New("no card selected in this room")
	ErrNotWinner           = errors.New("no winning pattern on your card")
	ErrNotInRoom           = errors.New("join the room first")
	ErrSettlementFailed    = errors.New("could not settle the win, try again")
)
