package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/royalbingo/bingo-backend/game"
	"github.com/royalbingo/bingo-backend/models"
	"github.com/royalbingo/bingo-backend/services"
)

const minWithdraw = 100.0

// TransactionController serves deposit and withdraw requests plus the
// admin approval that releases a deposit into the balance.
type TransactionController struct {
	DB       *gorm.DB
	Accounts *services.Accounts
	Hub      *services.Hub
}

type depositRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Method string  `json:"method" binding:"required"`
	Code   string  `json:"code" binding:"required"`
}

// Deposit files a pending deposit request for later approval.
func (tc *TransactionController) Deposit(c *gin.Context) {
	identity := currentIdentity(c)
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dep := models.DepositRequest{
		UserID:          identity.UserID,
		Amount:          req.Amount,
		Method:          req.Method,
		TransactionCode: req.Code,
		Status:          "pending",
	}
	if err := tc.DB.Create(&dep).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to file deposit request"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "deposit request filed, awaiting approval", "id": dep.ID})
}

type approveDepositRequest struct {
	DepositID uint `json:"depositId" binding:"required"`
}

// ApproveDeposit releases a pending deposit: status flip, balance
// credit and ledger entry in one transaction, then a BALANCE_UPDATE
// push to the user's live connections.
func (tc *TransactionController) ApproveDeposit(c *gin.Context) {
	var req approveDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var dep models.DepositRequest
	var balance float64
	err := tc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND status = ?", req.DepositID, "pending").First(&dep).Error; err != nil {
			return err
		}
		if err := tx.Model(&dep).Update("status", "approved").Error; err != nil {
			return err
		}
		var user models.User
		if err := tx.First(&user, dep.UserID).Error; err != nil {
			return err
		}
		user.Balance += dep.Amount
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		balance = user.Balance
		return tx.Create(&models.BalanceHistory{
			UserID:       user.ID,
			Type:         models.EntryDeposit,
			Amount:       dep.Amount,
			BalanceAfter: balance,
			Description:  "Approved deposit (" + dep.Method + ")",
		}).Error
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found or already handled"})
		return
	}

	tc.Hub.NotifyUser(dep.UserID, game.BalanceUpdateEvent{Type: game.EventBalanceUpdate, Balance: balance})
	c.JSON(http.StatusOK, gin.H{"message": "deposit approved"})
}

type withdrawRequest struct {
	Amount  float64 `json:"amount" binding:"required,gt=0"`
	Method  string  `json:"method" binding:"required"`
	Account string  `json:"account" binding:"required"`
}

// Withdraw debits the amount up front and files a pending withdrawal.
func (tc *TransactionController) Withdraw(c *gin.Context) {
	identity := currentIdentity(c)
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Amount < minWithdraw {
		c.JSON(http.StatusBadRequest, gin.H{"error": "minimum withdrawal is 100"})
		return
	}

	var wd models.WithdrawRequest
	err := tc.DB.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, identity.UserID).Error; err != nil {
			return err
		}
		if user.Balance < req.Amount {
			return game.ErrInsufficientBalance
		}
		user.Balance -= req.Amount
		if err := tx.Save(&user).Error; err != nil {
			return err
		}
		wd = models.WithdrawRequest{
			UserID:         user.ID,
			Amount:         req.Amount,
			Method:         req.Method,
			AccountDetails: req.Account,
			Status:         "pending",
		}
		if err := tx.Create(&wd).Error; err != nil {
			return err
		}
		return tx.Create(&models.BalanceHistory{
			UserID:       user.ID,
			Type:         models.EntryWithdraw,
			Amount:       -req.Amount,
			BalanceAfter: user.Balance,
			Description:  "Withdrawal request (" + req.Method + ")",
		}).Error
	})
	if err == game.ErrInsufficientBalance {
		c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to file withdrawal"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "withdrawal request filed, awaiting approval", "id": wd.ID})
}
