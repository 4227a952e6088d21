package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/royalbingo/bingo-backend/controllers"
	"github.com/royalbingo/bingo-backend/services"
)

// Deps carries everything the REST surface needs. Controllers receive
// their dependencies here instead of reaching for globals.
type Deps struct {
	DB       *gorm.DB
	Auth     *services.Auth
	Accounts *services.Accounts
	Hub      *services.Hub
}

func SetupRoutes(r *gin.Engine, d Deps) {
	users := &controllers.UserController{DB: d.DB, Auth: d.Auth, Accounts: d.Accounts}
	txs := &controllers.TransactionController{DB: d.DB, Accounts: d.Accounts, Hub: d.Hub}
	games := &controllers.GameController{DB: d.DB}

	api := r.Group("/api")

	// ----------------------
	// Auth routes
	// ----------------------
	api.POST("/register", users.Register)
	api.POST("/login", users.Login)

	// ----------------------
	// User routes
	// ----------------------
	user := api.Group("/user", controllers.AuthRequired(d.Auth))
	user.GET("/profile", users.Profile)
	user.GET("/balance", users.Balance)
	user.GET("/balance-history", users.BalanceHistory)

	// ----------------------
	// Game routes
	// ----------------------
	api.GET("/games", games.ListRounds)

	// ----------------------
	// Transaction routes
	// ----------------------
	tx := api.Group("", controllers.AuthRequired(d.Auth))
	tx.POST("/deposit-request", txs.Deposit)
	tx.POST("/withdraw-request", txs.Withdraw)

	// ----------------------
	// Admin routes
	// ----------------------
	admin := api.Group("/admin", controllers.AuthRequired(d.Auth), controllers.AdminOnly())
	admin.POST("/approve-deposit", txs.ApproveDeposit)
}
