package handlers

import (
	"errors"

	apperrors "paytrack/internal/errors"
	"paytrack/internal/models"
	"paytrack/internal/services/ledger"
	"paytrack/internal/utils/pagination"
	"paytrack/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

const (
	msgPaymentFailed      = "Failed to process payment"
	msgBalanceFailed      = "Failed to fetch balance"
	msgTransactionsFailed = "Failed to fetch transactions"
	msgEnsureUserFailed   = "Failed to ensure user"
)

// LedgerHandler exposes payment, balance and history endpoints.
type LedgerHandler struct {
	service ledger.Service
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(s ledger.Service) *LedgerHandler { return &LedgerHandler{service: s} }

// RecordPayment handles POST /api/payments.
func (h *LedgerHandler) RecordPayment(c *fiber.Ctx) error {
	var req models.TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	payment, err := h.service.RecordTransfer(c.UserContext(), req)
	if err != nil {
		return writeError(c, err, msgPaymentFailed)
	}
	return response.OK(c, payment)
}

// GetBalance handles GET /api/balance/:userId/:otherUserId.
func (h *LedgerHandler) GetBalance(c *fiber.Ctx) error {
	userID, otherUserID, err := pairParams(c)
	if err != nil {
		return writeError(c, err, msgBalanceFailed)
	}

	balance, err := h.service.GetBalance(c.UserContext(), userID, otherUserID)
	if err != nil {
		return writeError(c, err, msgBalanceFailed)
	}
	return response.OK(c, balance)
}

// GetTransactions handles GET /api/transactions/:userId/:otherUserId.
func (h *LedgerHandler) GetTransactions(c *fiber.Ctx) error {
	userID, otherUserID, err := pairParams(c)
	if err != nil {
		return writeError(c, err, msgTransactionsFailed)
	}

	payments, err := h.service.GetRecentTransactions(c.UserContext(), userID, otherUserID, pagination.ParseLimit(c))
	if err != nil {
		return writeError(c, err, msgTransactionsFailed)
	}
	return response.OK(c, payments)
}

// EnsureUser handles POST /api/users/:userId/ensure.
func (h *LedgerHandler) EnsureUser(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil {
		return writeError(c, invalidParam("userId"), msgEnsureUserFailed)
	}

	user, err := h.service.EnsureParticipant(c.UserContext(), int64(userID))
	if err != nil {
		return writeError(c, err, msgEnsureUserFailed)
	}
	return response.OK(c, user)
}

func pairParams(c *fiber.Ctx) (int64, int64, error) {
	userID, err := c.ParamsInt("userId")
	if err != nil {
		return 0, 0, invalidParam("userId")
	}
	otherUserID, err := c.ParamsInt("otherUserId")
	if err != nil {
		return 0, 0, invalidParam("otherUserId")
	}
	return int64(userID), int64(otherUserID), nil
}

func invalidParam(name string) error {
	return apperrors.Validation("parse_params", apperrors.ValidationErrors{name: "must be an integer"})
}

// writeError maps validation failures to 400 and hides everything else behind a generic 500.
func writeError(c *fiber.Ctx, err error, generic string) error {
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		return response.ServerError(c, generic)
	}
	var fields apperrors.ValidationErrors
	if errors.As(err, &fields) {
		return response.ValidationError(c, fields)
	}
	return response.BadRequest(c, err.Error())
}
