package models

import "time"

type BalanceEntryType string

const (
	EntryStake    BalanceEntryType = "stake"
	EntryWin      BalanceEntryType = "win"
	EntryDeposit  BalanceEntryType = "deposit"
	EntryWithdraw BalanceEntryType = "withdrawal_request"
	EntryBonus    BalanceEntryType = "signup_bonus"
)

// BalanceHistory is an append-only ledger of balance mutations.
type BalanceHistory struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	UserID       uint             `gorm:"index" json:"user_id"`
	Type         BalanceEntryType `json:"type"`
	Amount       float64          `json:"amount"`
	BalanceAfter float64          `json:"balance_after"`
	Description  string           `json:"description"`
	CreatedAt    time.Time        `json:"created_at"`
}
