package models

import (
	"time"

	"gorm.io/datatypes"
)

// GameRound is the persisted record of one finished round in a stake room.
type GameRound struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Stake       int            `json:"stake"`
	RoundNumber int            `json:"round_number"`
	Status      string         `json:"status"` // in_progress | finished
	NumbersJSON datatypes.JSON `json:"numbers"`
	WinnerID    *uint          `json:"winner_id"`
	WinnerName  string         `json:"winner_name"`
	Pattern     string         `json:"pattern"`
	Payout      float64        `json:"payout"`
	StartTime   time.Time      `json:"start_time"`
	EndTime     time.Time      `json:"end_time"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
