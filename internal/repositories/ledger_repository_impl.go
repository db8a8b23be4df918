package repositories

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"paytrack/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgreSQL error codes the repository reacts to.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

type ledgerRepository struct {
	db         *gorm.DB
	maxRetries int
	inTx       bool
}

// NewLedgerRepository returns a gorm-backed LedgerRepository. A transaction that fails with a
// serialization failure or deadlock is re-run up to maxRetries times before ErrConflict is returned.
func NewLedgerRepository(db *gorm.DB, maxRetries int) LedgerRepository {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &ledgerRepository{db: db, maxRetries: maxRetries}
}

func (r *ledgerRepository) EnsureUser(ctx context.Context, user *models.User) (*models.User, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user %d: %w", user.ID, classify(err))
	}
	return r.GetUser(ctx, user.ID)
}

func (r *ledgerRepository) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Take(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", classify(err))
	}
	return &user, nil
}

func (r *ledgerRepository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", classify(err))
	}
	return nil
}

func (r *ledgerRepository) GetPaymentsBetween(ctx context.Context, userA, userB int64, limit int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("(payer_id = ? AND recipient_id = ?) OR (payer_id = ? AND recipient_id = ?)", userA, userB, userB, userA).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", classify(err))
	}
	return payments, nil
}

// LockPair takes a transaction-scoped advisory lock for the unordered pair.
// Outside a transaction the lock would be released immediately, so it is a no-op there.
func (r *ledgerRepository) LockPair(ctx context.Context, userA, userB int64) error {
	if !r.inTx {
		return nil
	}
	if err := r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", PairLockKey(userA, userB)).Error; err != nil {
		return fmt.Errorf("failed to lock pair %d/%d: %w", userA, userB, classify(err))
	}
	return nil
}

func (r *ledgerRepository) AdjustBalance(ctx context.Context, ownerID, counterpartyID int64, delta decimal.Decimal) error {
	row := models.Balance{
		OwnerID:        ownerID,
		CounterpartyID: counterpartyID,
		Amount:         delta,
		UpdatedAt:      time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "owner_id"}, {Name: "counterparty_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"amount":     gorm.Expr(`"balances"."amount" + EXCLUDED."amount"`),
				"updated_at": gorm.Expr(`EXCLUDED."updated_at"`),
			}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to adjust balance %d/%d: %w", ownerID, counterpartyID, classify(err))
	}
	return nil
}

func (r *ledgerRepository) GetBalance(ctx context.Context, ownerID, counterpartyID int64) (*models.Balance, error) {
	var balance models.Balance
	err := r.db.WithContext(ctx).
		Take(&balance, "owner_id = ? AND counterparty_id = ?", ownerID, counterpartyID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBalanceNotFound
		}
		return nil, fmt.Errorf("failed to get balance: %w", classify(err))
	}
	return &balance, nil
}

func (r *ledgerRepository) ExecuteInTransaction(ctx context.Context, fn func(LedgerRepository) error) error {
	if r.inTx {
		return fn(r)
	}

	var err error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&ledgerRepository{db: tx, maxRetries: r.maxRetries, inTx: true})
		})
		if err == nil || !isRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrConflict, r.maxRetries+1, err)
}

func (r *ledgerRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// PairLockKey maps an unordered user pair onto a 64-bit advisory lock key.
func PairLockKey(userA, userB int64) int64 {
	if userA > userB {
		userA, userB = userB, userA
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "ledger-pair:%d:%d", userA, userB)
	return int64(h.Sum64())
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
	}
	return false
}

// classify tags unique violations as conflicts; everything else is returned unchanged.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
