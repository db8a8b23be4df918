package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "paytrack/internal/errors"
	"paytrack/internal/models"
	"paytrack/internal/services/ledger"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) RecordTransfer(ctx context.Context, req models.TransferRequest) (*models.Payment, error) {
	args := m.Called(ctx, req)
	if p := args.Get(0); p != nil {
		return p.(*models.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLedgerService) EnsureParticipant(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLedgerService) GetBalance(ctx context.Context, ownerID, counterpartyID int64) (*ledger.BalanceView, error) {
	args := m.Called(ctx, ownerID, counterpartyID)
	if b := args.Get(0); b != nil {
		return b.(*ledger.BalanceView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLedgerService) GetRecentTransactions(ctx context.Context, userA, userB int64, limit int) ([]models.Payment, error) {
	args := m.Called(ctx, userA, userB, limit)
	if p := args.Get(0); p != nil {
		return p.([]models.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func setupLedgerApp(svc ledger.Service) *fiber.App {
	app := fiber.New()
	h := NewLedgerHandler(svc)
	app.Post("/api/payments", h.RecordPayment)
	app.Get("/api/balance/:userId/:otherUserId", h.GetBalance)
	app.Get("/api/transactions/:userId/:otherUserId", h.GetTransactions)
	app.Post("/api/users/:userId/ensure", h.EnsureUser)
	return app
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestLedgerHandler_RecordPayment(t *testing.T) {
	payment := &models.Payment{
		ID:          1,
		PayerID:     1,
		RecipientID: 2,
		Amount:      decimal.RequireFromString("50.5"),
		Description: "lunch",
		Timestamp:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name       string
		body       string
		setupMock  func(m *MockLedgerService)
		wantStatus int
		assertBody func(t *testing.T, body map[string]interface{})
	}{
		{
			name: "success",
			body: `{"payerId":1,"recipientId":2,"amount":50.5,"description":"lunch"}`,
			setupMock: func(m *MockLedgerService) {
				m.On("RecordTransfer", mock.Anything, mock.MatchedBy(func(r models.TransferRequest) bool {
					return r.PayerID == 1 && r.RecipientID == 2 &&
						r.Amount.Equal(decimal.RequireFromString("50.5")) && r.Description == "lunch"
				})).Return(payment, nil)
			},
			wantStatus: fiber.StatusOK,
			assertBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, float64(1), body["id"])
				assert.Equal(t, "lunch", body["description"])
				assert.Equal(t, "2024-05-01T12:00:00Z", body["timestamp"])
			},
		},
		{
			name: "amount as string",
			body: `{"payerId":1,"recipientId":2,"amount":"50.5","description":"lunch"}`,
			setupMock: func(m *MockLedgerService) {
				m.On("RecordTransfer", mock.Anything, mock.Anything).Return(payment, nil)
			},
			wantStatus: fiber.StatusOK,
		},
		{
			name:       "malformed body",
			body:       `{"payerId":`,
			setupMock:  func(m *MockLedgerService) {},
			wantStatus: fiber.StatusBadRequest,
			assertBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "invalid request body", body["error"])
			},
		},
		{
			name: "validation failure",
			body: `{"payerId":1,"recipientId":2,"amount":-5}`,
			setupMock: func(m *MockLedgerService) {
				m.On("RecordTransfer", mock.Anything, mock.Anything).Return(nil,
					apperrors.Validation(ledger.OpRecordTransfer, apperrors.ValidationErrors{"amount": "must be greater than 0"}))
			},
			wantStatus: fiber.StatusBadRequest,
			assertBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "amount must be greater than 0", body["error"])
				assert.Equal(t, map[string]interface{}{"amount": "must be greater than 0"}, body["fields"])
			},
		},
		{
			name: "conflict is hidden",
			body: `{"payerId":1,"recipientId":2,"amount":5}`,
			setupMock: func(m *MockLedgerService) {
				m.On("RecordTransfer", mock.Anything, mock.Anything).Return(nil,
					apperrors.Conflict(ledger.OpRecordTransfer, errors.New("serialization failure")))
			},
			wantStatus: fiber.StatusInternalServerError,
			assertBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Failed to process payment", body["error"])
			},
		},
		{
			name: "storage failure is hidden",
			body: `{"payerId":1,"recipientId":2,"amount":5}`,
			setupMock: func(m *MockLedgerService) {
				m.On("RecordTransfer", mock.Anything, mock.Anything).Return(nil,
					apperrors.Storage(ledger.OpRecordTransfer, errors.New("dial tcp: connection refused")))
			},
			wantStatus: fiber.StatusInternalServerError,
			assertBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "Failed to process payment", body["error"])
				assert.NotContains(t, body["error"], "connection refused")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockLedgerService)
			tt.setupMock(svc)
			app := setupLedgerApp(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/payments", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.assertBody != nil {
				tt.assertBody(t, decodeBody(t, resp))
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestLedgerHandler_GetBalance(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("GetBalance", mock.Anything, int64(1), int64(2)).
			Return(&ledger.BalanceView{OwnerID: 1, CounterpartyID: 2, Amount: decimal.RequireFromString("-30")}, nil)

		resp, err := setupLedgerApp(svc).Test(httptest.NewRequest(http.MethodGet, "/api/balance/1/2", nil))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, float64(1), body["ownerId"])
		assert.Equal(t, float64(2), body["counterpartyId"])
		assert.Contains(t, body, "amount")
		svc.AssertExpectations(t)
	})

	t.Run("non-integer id", func(t *testing.T) {
		svc := new(MockLedgerService)

		resp, err := setupLedgerApp(svc).Test(httptest.NewRequest(http.MethodGet, "/api/balance/abc/2", nil))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Contains(t, body["error"], "userId")
		svc.AssertNotCalled(t, "GetBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("GetBalance", mock.Anything, int64(1), int64(2)).
			Return(nil, apperrors.Storage(ledger.OpGetBalance, errors.New("timeout")))

		resp, err := setupLedgerApp(svc).Test(httptest.NewRequest(http.MethodGet, "/api/balance/1/2", nil))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Failed to fetch balance", decodeBody(t, resp)["error"])
	})
}

func TestLedgerHandler_GetTransactions(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantLimit int
	}{
		{name: "default limit", path: "/api/transactions/1/2", wantLimit: 0},
		{name: "explicit limit", path: "/api/transactions/1/2?limit=5", wantLimit: 5},
		{name: "malformed limit", path: "/api/transactions/1/2?limit=lots", wantLimit: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockLedgerService)
			svc.On("GetRecentTransactions", mock.Anything, int64(1), int64(2), tt.wantLimit).
				Return([]models.Payment{{ID: 2, Description: "coffee"}, {ID: 1, Description: "lunch"}}, nil)

			resp, err := setupLedgerApp(svc).Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)

			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			var payments []map[string]interface{}
			require.NoError(t, json.Unmarshal(raw, &payments))
			require.Len(t, payments, 2)
			assert.Equal(t, "coffee", payments[0]["description"])
			svc.AssertExpectations(t)
		})
	}

	t.Run("store failure", func(t *testing.T) {
		svc := new(MockLedgerService)
		svc.On("GetRecentTransactions", mock.Anything, int64(1), int64(2), 0).
			Return(nil, errors.New("boom"))

		resp, err := setupLedgerApp(svc).Test(httptest.NewRequest(http.MethodGet, "/api/transactions/1/2", nil))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Failed to fetch transactions", decodeBody(t, resp)["error"])
	})
}

func TestLedgerHandler_EnsureUser(t *testing.T) {
	svc := new(MockLedgerService)
	svc.On("EnsureParticipant", mock.Anything, int64(3)).
		Return(&models.User{ID: 3, Username: "User3", Email: "user3@example.com"}, nil)

	resp, err := setupLedgerApp(svc).Test(httptest.NewRequest(http.MethodPost, "/api/users/3/ensure", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "User3", decodeBody(t, resp)["username"])
	svc.AssertExpectations(t)
}
