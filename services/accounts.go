package services

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/royalbingo/bingo-backend/game"
	"github.com/royalbingo/bingo-backend/models"
)

// Accounts is the gorm-backed account store. Every mutation updates the
// user balance and appends a ledger row inside a single transaction, so
// a mid-settlement failure rolls back completely.
type Accounts struct {
	db *gorm.DB
}

func NewAccounts(db *gorm.DB) *Accounts {
	return &Accounts{db: db}
}

var _ game.AccountStore = (*Accounts)(nil)

func (a *Accounts) GetBalance(ctx context.Context, userID uint) (float64, error) {
	var user models.User
	if err := a.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return 0, err
	}
	return user.Balance, nil
}

// DebitStake removes a stake from the user's balance. Returns
// game.ErrInsufficientBalance without touching anything when the
// balance does not cover the amount.
func (a *Accounts) DebitStake(ctx context.Context, userID uint, amount float64, note string) (float64, error) {
	return a.apply(ctx, userID, -amount, models.EntryStake, note, true)
}

// CreditWin pays a settled win into the user's balance.
func (a *Accounts) CreditWin(ctx context.Context, userID uint, amount float64, note string) (float64, error) {
	return a.apply(ctx, userID, amount, models.EntryWin, note, false)
}

// Credit applies an arbitrary balance increase (deposit approval,
// signup bonus) with the given ledger type.
func (a *Accounts) Credit(ctx context.Context, userID uint, amount float64, entry models.BalanceEntryType, note string) (float64, error) {
	return a.apply(ctx, userID, amount, entry, note, false)
}

func (a *Accounts) apply(ctx context.Context, userID uint, delta float64, entry models.BalanceEntryType, note string, checkFunds bool) (float64, error) {
	var after float64
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		q := tx
		// SQLite (in-memory tests) has no SELECT ... FOR UPDATE; its
		// single writer serializes the transaction anyway.
		if tx.Dialector.Name() == "postgres" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&user, userID).Error; err != nil {
			return err
		}
		if checkFunds && user.Balance < -delta {
			return game.ErrInsufficientBalance
		}

		user.Balance += delta
		if err := tx.Save(&user).Error; err != nil {
			return err
		}

		after = user.Balance
		return tx.Create(&models.BalanceHistory{
			UserID:       userID,
			Type:         entry,
			Amount:       delta,
			BalanceAfter: after,
			Description:  note,
		}).Error
	})
	if err != nil {
		if errors.Is(err, game.ErrInsufficientBalance) {
			return 0, game.ErrInsufficientBalance
		}
		return 0, err
	}
	return after, nil
}
