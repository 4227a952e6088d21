package config

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/royalbingo/bingo-backend/models"
	"github.com/royalbingo/bingo-backend/utils/logger"
)

// SetupDatabase connects to Postgres and runs migrations.
func SetupDatabase(cfg *Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		logger.Fatalf("failed to connect to DB: %v", err)
	}

	if err := Migrate(db); err != nil {
		logger.Fatalf("migration failed: %v", err)
	}

	logger.Info("database connected and migrated")
	return db
}

// Migrate applies the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.GameRound{},
		&models.BalanceHistory{},
		&models.DepositRequest{},
		&models.WithdrawRequest{},
	)
}
