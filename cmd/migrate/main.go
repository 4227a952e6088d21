package main

import (
	"github.com/royalbingo/bingo-backend/config"
	"github.com/royalbingo/bingo-backend/utils/logger"
)

// Standalone migration entrypoint for deploy pipelines that migrate
// before rolling the server.
func main() {
	defer logger.Sync()

	cfg := config.Load()
	config.SetupDatabase(cfg)
	logger.Info("migrations applied")
}
