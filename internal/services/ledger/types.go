package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config holds configuration for ledger operations
type Config struct {
	AllowSelfTransfer   bool
	DefaultHistoryLimit int
	MaxHistoryLimit     int
	// Clock stamps new payments. Defaults to time.Now in UTC.
	Clock func() time.Time
}

// BalanceView is the signed amount counterparty owes owner. Positive means the owner is owed.
type BalanceView struct {
	OwnerID        int64           `json:"ownerId"`
	CounterpartyID int64           `json:"counterpartyId"`
	Amount         decimal.Decimal `json:"amount"`
}
