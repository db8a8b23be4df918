package ledger

import (
	"context"
	"errors"
	"time"

	apperrors "paytrack/internal/errors"
	"paytrack/internal/logger"
	"paytrack/internal/models"
	"paytrack/internal/repositories"
	"paytrack/internal/validation"

	"github.com/rs/zerolog"
)

type service struct {
	repo      repositories.LedgerRepository
	publisher Publisher
	config    Config
	metrics   MetricsCollector
	log       zerolog.Logger
}

// NewService creates a new ledger service
func NewService(
	repo repositories.LedgerRepository,
	publisher Publisher,
	config Config,
	metrics MetricsCollector,
	log zerolog.Logger,
) Service {
	if repo == nil {
		panic("repo is required")
	}

	if config.DefaultHistoryLimit <= 0 {
		config.DefaultHistoryLimit = DefaultHistoryLimit
	}
	if config.MaxHistoryLimit <= 0 {
		config.MaxHistoryLimit = MaxHistoryLimit
	}
	if config.DefaultHistoryLimit > config.MaxHistoryLimit {
		config.DefaultHistoryLimit = config.MaxHistoryLimit
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	// Metrics and publishing are optional
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:      repo,
		publisher: publisher,
		config:    config,
		metrics:   metrics,
		log:       log,
	}
}

func (s *service) RecordTransfer(ctx context.Context, req models.TransferRequest) (*models.Payment, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(OpRecordTransfer, time.Since(start))
	}()

	if err := validation.ValidateTransfer(req, s.config.AllowSelfTransfer); err != nil {
		return nil, s.fail(ctx, apperrors.Validation(OpRecordTransfer, err))
	}

	var payment *models.Payment
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		if err := tx.LockPair(ctx, req.PayerID, req.RecipientID); err != nil {
			return err
		}
		if _, err := ensureUser(ctx, tx, req.PayerID); err != nil {
			return err
		}
		if _, err := ensureUser(ctx, tx, req.RecipientID); err != nil {
			return err
		}

		// Built per attempt so a retried unit never reuses an id from a rolled back insert.
		p := &models.Payment{
			PayerID:     req.PayerID,
			RecipientID: req.RecipientID,
			Amount:      req.Amount,
			Description: req.Description,
			Timestamp:   s.now(),
		}
		if err := tx.CreatePayment(ctx, p); err != nil {
			return err
		}
		if err := tx.AdjustBalance(ctx, req.PayerID, req.RecipientID, req.Amount.Neg()); err != nil {
			return err
		}
		if err := tx.AdjustBalance(ctx, req.RecipientID, req.PayerID, req.Amount); err != nil {
			return err
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, classify(OpRecordTransfer, err))
	}

	s.metrics.RecordOperationResult(OpRecordTransfer, ResultSuccess)
	s.metrics.RecordTransferVolume(payment.Amount)
	log := logger.FromContextOr(ctx, s.log)
	log.Info().
		Int64("payment_id", payment.ID).
		Int64("payer_id", payment.PayerID).
		Int64("recipient_id", payment.RecipientID).
		Str("amount", payment.Amount.String()).
		Msg("transfer recorded")

	s.publish(ctx, payment)
	return payment, nil
}

func (s *service) EnsureParticipant(ctx context.Context, userID int64) (*models.User, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(OpEnsureParticipant, time.Since(start))
	}()

	if err := validation.ValidateUserID("userId", userID); err != nil {
		return nil, s.fail(ctx, apperrors.Validation(OpEnsureParticipant, err))
	}

	var user *models.User
	err := s.repo.ExecuteInTransaction(ctx, func(tx repositories.LedgerRepository) error {
		u, err := ensureUser(ctx, tx, userID)
		user = u
		return err
	})
	if err != nil {
		return nil, s.fail(ctx, classify(OpEnsureParticipant, err))
	}

	s.metrics.RecordOperationResult(OpEnsureParticipant, ResultSuccess)
	return user, nil
}

// ensureUser inserts the placeholder profile for userID unless the user already exists.
func ensureUser(ctx context.Context, repo repositories.LedgerRepository, userID int64) (*models.User, error) {
	placeholder := models.PlaceholderUser(userID)
	return repo.EnsureUser(ctx, &placeholder)
}

func (s *service) publish(ctx context.Context, payment *models.Payment) {
	if s.publisher == nil {
		return
	}
	// The transfer is committed; the caller's cancellation must not drop the event.
	if err := s.publisher.PublishPaymentRecorded(context.WithoutCancel(ctx), payment); err != nil {
		s.metrics.RecordError(OpRecordTransfer, "publish")
		log := logger.FromContextOr(ctx, s.log)
		log.Warn().
			Err(err).
			Int64("payment_id", payment.ID).
			Msg("failed to publish payment event")
	}
}

// fail records and logs a classified failure and returns it unchanged.
func (s *service) fail(ctx context.Context, err error) error {
	var op string
	var le *apperrors.LedgerError
	if errors.As(err, &le) {
		op = le.Op
	}
	kind := apperrors.KindOf(err)

	s.metrics.RecordOperationResult(op, ResultFailure)
	s.metrics.RecordError(op, string(kind))

	log := logger.FromContextOr(ctx, s.log)
	event := log.Error()
	if kind == apperrors.KindValidation {
		event = log.Warn()
	}
	event.Err(err).Str("kind", string(kind)).Str("op", op).Msg("ledger operation failed")
	return err
}

// now returns the payment timestamp at the precision PostgreSQL stores.
func (s *service) now() time.Time {
	return s.config.Clock().UTC().Truncate(time.Microsecond)
}
