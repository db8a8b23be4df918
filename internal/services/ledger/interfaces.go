package ledger

import (
	"context"
	"time"

	"paytrack/internal/models"

	"github.com/shopspring/decimal"
)

// Service defines the ledger operations
type Service interface {
	// Write path
	RecordTransfer(ctx context.Context, req models.TransferRequest) (*models.Payment, error)
	EnsureParticipant(ctx context.Context, userID int64) (*models.User, error)

	// Read path
	GetBalance(ctx context.Context, ownerID, counterpartyID int64) (*BalanceView, error)
	GetRecentTransactions(ctx context.Context, userA, userB int64, limit int) ([]models.Payment, error)
}

// Publisher receives committed payments.
type Publisher interface {
	PublishPaymentRecorded(ctx context.Context, payment *models.Payment) error
}

// MetricsCollector defines metrics collection methods
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation string, result string)
	RecordError(operation string, kind string)
	RecordTransferVolume(amount decimal.Decimal)
}
