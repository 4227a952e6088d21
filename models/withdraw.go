package models

import "time"

type WithdrawRequest struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	Amount         float64   `gorm:"not null" json:"amount"`
	Method         string    `json:"method"`
	AccountDetails string    `json:"account_details"`
	Status         string    `gorm:"default:pending" json:"status"` // pending | approved | rejected
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
