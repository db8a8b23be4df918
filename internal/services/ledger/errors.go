package ledger

import (
	"errors"

	apperrors "paytrack/internal/errors"
	"paytrack/internal/repositories"
)

// classify wraps a store failure into a LedgerError. Already classified errors pass through.
func classify(op string, err error) error {
	var le *apperrors.LedgerError
	if errors.As(err, &le) {
		return err
	}
	if errors.Is(err, repositories.ErrConflict) {
		return apperrors.Conflict(op, err)
	}
	return apperrors.Storage(op, err)
}
