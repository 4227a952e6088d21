package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/royalbingo/bingo-backend/models"
)

// GameController serves finished round history.
type GameController struct {
	DB *gorm.DB
}

// ListRounds returns the most recent rounds, optionally filtered by
// stake (?stake=10).
func (gc *GameController) ListRounds(c *gin.Context) {
	q := gc.DB.Order("created_at DESC").Limit(50)
	if raw := c.Query("stake"); raw != "" {
		stake, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid stake"})
			return
		}
		q = q.Where("stake = ?", stake)
	}

	var rounds []models.GameRound
	if err := q.Find(&rounds).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	c.JSON(http.StatusOK, rounds)
}
