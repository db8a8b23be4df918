package repositories

import (
	"context"
	"errors"

	"paytrack/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrBalanceNotFound = errors.New("balance not found")
	ErrConflict        = errors.New("concurrent update conflict")
)

// LedgerRepository is the entity store behind the ledger.
// Writes issued through the repository handed to ExecuteInTransaction commit or roll back together.
type LedgerRepository interface {
	// Participants
	EnsureUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)

	// Payments
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentsBetween(ctx context.Context, userA, userB int64, limit int) ([]models.Payment, error)

	// Balances
	LockPair(ctx context.Context, userA, userB int64) error
	AdjustBalance(ctx context.Context, ownerID, counterpartyID int64, delta decimal.Decimal) error
	GetBalance(ctx context.Context, ownerID, counterpartyID int64) (*models.Balance, error)

	ExecuteInTransaction(ctx context.Context, fn func(LedgerRepository) error) error
	Ping(ctx context.Context) error
}
