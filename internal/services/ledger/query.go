package ledger

import (
	"context"
	"errors"
	"time"

	apperrors "paytrack/internal/errors"
	"paytrack/internal/models"
	"paytrack/internal/repositories"
	"paytrack/internal/validation"

	"github.com/shopspring/decimal"
)

// GetBalance returns what counterpartyID owes ownerID. An unseen pair is zero.
func (s *service) GetBalance(ctx context.Context, ownerID, counterpartyID int64) (*BalanceView, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(OpGetBalance, time.Since(start))
	}()

	if err := validatePair(ownerID, counterpartyID); err != nil {
		return nil, s.fail(ctx, apperrors.Validation(OpGetBalance, err))
	}

	view := &BalanceView{OwnerID: ownerID, CounterpartyID: counterpartyID, Amount: decimal.Zero}
	balance, err := s.repo.GetBalance(ctx, ownerID, counterpartyID)
	switch {
	case errors.Is(err, repositories.ErrBalanceNotFound):
	case err != nil:
		return nil, s.fail(ctx, classify(OpGetBalance, err))
	default:
		view.Amount = balance.Amount
	}

	s.metrics.RecordOperationResult(OpGetBalance, ResultSuccess)
	return view, nil
}

// GetRecentTransactions returns payments between the pair in either direction, newest first.
func (s *service) GetRecentTransactions(ctx context.Context, userA, userB int64, limit int) ([]models.Payment, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(OpGetRecentTransactions, time.Since(start))
	}()

	if err := validatePair(userA, userB); err != nil {
		return nil, s.fail(ctx, apperrors.Validation(OpGetRecentTransactions, err))
	}

	payments, err := s.repo.GetPaymentsBetween(ctx, userA, userB, s.clampLimit(limit))
	if err != nil {
		return nil, s.fail(ctx, classify(OpGetRecentTransactions, err))
	}
	if payments == nil {
		payments = []models.Payment{}
	}

	s.metrics.RecordOperationResult(OpGetRecentTransactions, ResultSuccess)
	return payments, nil
}

func (s *service) clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return s.config.DefaultHistoryLimit
	case limit > s.config.MaxHistoryLimit:
		return s.config.MaxHistoryLimit
	default:
		return limit
	}
}

func validatePair(a, b int64) error {
	v := validation.New()
	v.Check(a > 0, "userId", "must be a positive integer")
	v.Check(b > 0, "otherUserId", "must be a positive integer")
	return v.Err()
}
