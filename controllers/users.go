package controllers

import (
	"fmt"
	"math/rand"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/royalbingo/bingo-backend/models"
	"github.com/royalbingo/bingo-backend/services"
)

const signupBonus = 10.0

// UserController serves registration, login and account lookups.
type UserController struct {
	DB       *gorm.DB
	Auth     *services.Auth
	Accounts *services.Accounts
}

type registerRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

type loginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token    string  `json:"token"`
	Username string  `json:"username"`
	Name     string  `json:"name"`
	PlayerID string  `json:"player_id"`
	Balance  float64 `json:"balance"`
	IsAdmin  bool    `json:"is_admin"`
}

// Register creates an account with the signup bonus and issues a token.
func (uc *UserController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.User
	if err := uc.DB.Where("phone = ?", req.Phone).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
		return
	}

	hash, err := services.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	user := models.User{
		Phone:        req.Phone,
		Username:     req.Phone,
		Name:         req.Name,
		PlayerID:     fmt.Sprintf("PL%04d", 1000+rand.Intn(9000)),
		PasswordHash: hash,
	}
	if err := uc.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}
	if balance, err := uc.Accounts.Credit(c.Request.Context(), user.ID, signupBonus, models.EntryBonus, "Signup bonus"); err == nil {
		user.Balance = balance
	}

	uc.respondWithToken(c, http.StatusCreated, &user)
}

// Login checks credentials and issues a token.
func (uc *UserController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := uc.DB.Where("phone = ?", req.Phone).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown user or wrong phone number"})
		return
	}
	if !services.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "wrong password"})
		return
	}

	uc.respondWithToken(c, http.StatusOK, &user)
}

func (uc *UserController) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := uc.Auth.Issue(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(status, authResponse{
		Token:    token,
		Username: user.Username,
		Name:     user.Name,
		PlayerID: user.PlayerID,
		Balance:  user.Balance,
		IsAdmin:  user.IsAdmin,
	})
}

// Profile returns the caller's account with play statistics.
func (uc *UserController) Profile(c *gin.Context) {
	identity := currentIdentity(c)

	var user models.User
	if err := uc.DB.First(&user, identity.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	var games, wins int64
	uc.DB.Model(&models.BalanceHistory{}).Where("user_id = ? AND type = ?", user.ID, models.EntryStake).Count(&games)
	uc.DB.Model(&models.BalanceHistory{}).Where("user_id = ? AND type = ?", user.ID, models.EntryWin).Count(&wins)

	c.JSON(http.StatusOK, gin.H{
		"id":          user.ID,
		"username":    user.Username,
		"name":        user.Name,
		"phone":       user.Phone,
		"player_id":   user.PlayerID,
		"balance":     user.Balance,
		"total_games": games,
		"total_wins":  wins,
	})
}

// Balance returns the caller's current balance.
func (uc *UserController) Balance(c *gin.Context) {
	identity := currentIdentity(c)
	balance, err := uc.Accounts.GetBalance(c.Request.Context(), identity.UserID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// BalanceHistory returns the caller's most recent ledger entries.
func (uc *UserController) BalanceHistory(c *gin.Context) {
	identity := currentIdentity(c)
	var entries []models.BalanceHistory
	if err := uc.DB.Where("user_id = ?", identity.UserID).
		Order("created_at DESC").Limit(50).Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	c.JSON(http.StatusOK, entries)
}
