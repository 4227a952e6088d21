package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/royalbingo/bingo-backend/config"
	"github.com/royalbingo/bingo-backend/game"
	"github.com/royalbingo/bingo-backend/routes"
	"github.com/royalbingo/bingo-backend/services"
	"github.com/royalbingo/bingo-backend/utils/logger"
)

func main() {
	defer logger.Sync()

	cfg := config.Load()
	db := config.SetupDatabase(cfg)

	// Shared services
	accounts := services.NewAccounts(db)
	recorder := services.NewRecorder(db)
	auth := services.NewAuth(cfg.JWTSecret)
	hub := services.NewHub()

	// Game engine: one room per stake tier, running for the process
	// lifetime.
	catalog := game.NewCatalog()
	registry := game.NewRegistry(game.DefaultStakes, game.DefaultConfig(), catalog, accounts, recorder, hub, logger.Log)
	registry.Start(context.Background())

	router := setupRouter(cfg, db, auth, accounts, hub, registry)

	logger.Infof("bingo backend listening on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatalf("failed to start server: %v", err)
	}
}

// setupRouter initializes Gin routes and middleware
func setupRouter(cfg *config.Config, db *gorm.DB, auth *services.Auth, accounts *services.Accounts, hub *services.Hub, registry *game.Registry) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, routes.Deps{
		DB:       db,
		Auth:     auth,
		Accounts: accounts,
		Hub:      hub,
	})

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now()})
	})

	// WebSocket endpoint; room membership is negotiated over the socket
	r.GET("/ws", services.HandleWebSocket(hub, registry, auth))

	return r
}
