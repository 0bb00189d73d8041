package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/toonvest/backend/internal/models"
)

func authedRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(context.WithValue(req.Context(), "userID", "1"))
}

func TestLedgerService_CreateInvestment_HTTP(t *testing.T) {
	t.Run("successful investment returns 201", func(t *testing.T) {
		fake := newFakeStore()
		fake.users["1"] = &models.User{Balance: 150_000}
		fake.progress["wt-001"] = &models.ProgressRecord{CurrentRaised: 0}
		service := newTestLedger(fake)

		req := authedRequest(t, http.MethodPost, "/api/v1/investments", `{"titleId":"wt-001","amount":50000}`)
		w := httptest.NewRecorder()
		service.CreateInvestment(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var result InvestResult
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, int64(100_000), result.NewBalance)
		assert.Equal(t, int64(50), result.MileageEarned)
	})

	t.Run("validation failure returns 400 with a user message", func(t *testing.T) {
		fake := newFakeStore()
		fake.users["1"] = &models.User{Balance: 150_000}
		fake.progress["wt-001"] = &models.ProgressRecord{CurrentRaised: 0}
		service := newTestLedger(fake)

		req := authedRequest(t, http.MethodPost, "/api/v1/investments", `{"titleId":"wt-001","amount":15000}`)
		w := httptest.NewRecorder()
		service.CreateInvestment(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response ErrorResponse
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "Amount must be in 10,000-won units", response.Error)
	})

	t.Run("unknown title returns 404", func(t *testing.T) {
		fake := newFakeStore()
		fake.users["1"] = &models.User{Balance: 150_000}
		service := newTestLedger(fake)

		req := authedRequest(t, http.MethodPost, "/api/v1/investments", `{"titleId":"wt-999","amount":50000}`)
		w := httptest.NewRecorder()
		service.CreateInvestment(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown body field is rejected", func(t *testing.T) {
		service := newTestLedger(newFakeStore())

		req := authedRequest(t, http.MethodPost, "/api/v1/investments", `{"titleId":"wt-001","amount":50000,"extra":true}`)
		w := httptest.NewRecorder()
		service.CreateInvestment(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing user context returns 401", func(t *testing.T) {
		service := newTestLedger(newFakeStore())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/investments", strings.NewReader(`{"titleId":"wt-001","amount":50000}`))
		w := httptest.NewRecorder()
		service.CreateInvestment(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestLedgerService_ValidateInvestment_HTTP(t *testing.T) {
	fake := newFakeStore()
	fake.users["1"] = &models.User{Balance: 150_000}
	fake.progress["wt-001"] = &models.ProgressRecord{CurrentRaised: 0}
	service := newTestLedger(fake)

	t.Run("valid amount", func(t *testing.T) {
		req := authedRequest(t, http.MethodPost, "/api/v1/investments/validate", `{"titleId":"wt-001","amount":50000}`)
		w := httptest.NewRecorder()
		service.ValidateInvestment(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]any
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, true, response["valid"])
	})

	t.Run("invalid amount carries the reason", func(t *testing.T) {
		req := authedRequest(t, http.MethodPost, "/api/v1/investments/validate", `{"titleId":"wt-001","amount":600000}`)
		w := httptest.NewRecorder()
		service.ValidateInvestment(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]any
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, false, response["valid"])
		assert.Equal(t, "Insufficient balance", response["reason"])
	})

	t.Run("validation never mutates state", func(t *testing.T) {
		req := authedRequest(t, http.MethodPost, "/api/v1/investments/validate", `{"titleId":"wt-001","amount":50000}`)
		w := httptest.NewRecorder()
		service.ValidateInvestment(w, req)

		assert.Equal(t, int64(150_000), fake.users["1"].Balance)
		assert.Equal(t, int64(0), fake.progress["wt-001"].CurrentRaised)
	})
}

func TestLedgerService_CancelInvestment_HTTP(t *testing.T) {
	fake := newFakeStore()
	fake.users["1"] = &models.User{Balance: 100_000}
	fake.progress["wt-001"] = &models.ProgressRecord{CurrentRaised: 50_000, TotalInvestors: 1}
	fake.investments["1"] = []models.InvestmentRecord{{
		ID:      "inv-1",
		TitleID: "wt-001",
		Amount:  50_000,
		Date:    time.Now().Add(-time.Hour),
		Status:  models.InvestmentInProgress,
	}}
	service := newTestLedger(fake)

	req := authedRequest(t, http.MethodDelete, "/api/v1/investments/inv-1", "")
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("investmentId", "inv-1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	w := httptest.NewRecorder()
	service.CancelInvestment(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result CancelResult
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, int64(50_000), result.RefundedAmount)
	assert.Equal(t, int64(150_000), result.NewBalance)
}
