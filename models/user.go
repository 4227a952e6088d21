package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Phone        string    `gorm:"uniqueIndex" json:"phone"`
	Username     string    `gorm:"uniqueIndex" json:"username"`
	Name         string    `json:"name"`
	PlayerID     string    `json:"player_id"`
	Balance      float64   `json:"balance"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
