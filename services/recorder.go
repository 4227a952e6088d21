package services

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/royalbingo/bingo-backend/game"
	"github.com/royalbingo/bingo-backend/models"
	"github.com/royalbingo/bingo-backend/utils/logger"
)

// Recorder persists finished rounds. Rooms call it from a spawned
// goroutine, so a slow or failing database never stalls a draw loop.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

var _ game.RoundRecorder = (*Recorder)(nil)

func (r *Recorder) RecordRound(stake int, started time.Time, history []int, winnerID *uint, winnerName string, pattern game.Pattern, payout float64) {
	numbers, err := json.Marshal(history)
	if err != nil {
		logger.Errorf("[recorder] marshal history: %v", err)
		return
	}

	var last models.GameRound
	next := 1
	if err := r.db.Where("stake = ?", stake).Order("round_number DESC").First(&last).Error; err == nil {
		next = last.RoundNumber + 1
	}

	round := models.GameRound{
		Stake:       stake,
		RoundNumber: next,
		Status:      "finished",
		NumbersJSON: datatypes.JSON(numbers),
		WinnerID:    winnerID,
		WinnerName:  winnerName,
		Pattern:     string(pattern),
		Payout:      payout,
		StartTime:   started,
		EndTime:     time.Now(),
	}
	if err := r.db.Create(&round).Error; err != nil {
		logger.Errorf("[recorder] save round (stake %d): %v", stake, err)
	}
}
