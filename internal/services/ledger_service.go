package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/toonvest/backend/internal/audit"
	"github.com/toonvest/backend/internal/catalog"
	"github.com/toonvest/backend/internal/config"
	"github.com/toonvest/backend/internal/events"
	"github.com/toonvest/backend/internal/models"
	"github.com/toonvest/backend/internal/store"
)

// Validation and eligibility errors. Each maps to a distinct user-facing
// message; none of them leave any state behind.
var (
	ErrBelowMinimum        = errors.New("amount below minimum investment")
	ErrAboveMaximum        = errors.New("amount above maximum investment")
	ErrNotUnitMultiple     = errors.New("amount must be a multiple of the investment unit")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrExceedsRemaining    = errors.New("amount exceeds remaining goal room")
	ErrTitleNotFound       = errors.New("title not found")
	ErrInvestmentNotFound  = errors.New("investment not found")
	ErrCancelWindowClosed  = errors.New("cancellation window has closed")
	ErrMissingDate         = errors.New("investment record has no date")
)

// LedgerStore is the slice of the document store the ledger needs.
type LedgerStore interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetProgress(ctx context.Context, titleID string) (*models.ProgressRecord, error)
	GetInvestments(ctx context.Context, userID string) ([]models.InvestmentRecord, error)
	GetMileage(ctx context.Context, userID string) (*models.MileageLedger, error)
	GetChargeHistory(ctx context.Context, userID string) ([]models.ChargeRecord, error)
	CommitInvestment(ctx context.Context, userID string, user *models.User, titleID string, progress *models.ProgressRecord, records []models.InvestmentRecord, mileage *models.MileageLedger) error
	CommitCancellation(ctx context.Context, userID string, user *models.User, titleID string, progress *models.ProgressRecord, records []models.InvestmentRecord, history []models.ChargeRecord) error
	CommitRecharge(ctx context.Context, userID string, user *models.User, history []models.ChargeRecord) error
}

// LedgerService performs validated, multi-document balance and progress
// mutations. It is the only writer of investment, progress and balance
// state; every mutation commits all affected documents in one store
// transaction and then broadcasts change notifications.
type LedgerService struct {
	store     LedgerStore
	catalog   *catalog.Catalog
	bus       *events.Bus
	audit     *audit.Logger
	validator *ValidationHelper
	config    *config.LedgerConfig

	// Serializes ledger mutations within this process. The store pipeline
	// makes each commit atomic; the mutex keeps read-modify-write cycles
	// from interleaving.
	mu sync.Mutex
}

func NewLedgerService(store LedgerStore, cat *catalog.Catalog, bus *events.Bus, cfg *config.LedgerConfig) *LedgerService {
	return &LedgerService{
		store:     store,
		catalog:   cat,
		bus:       bus,
		audit:     audit.NewLogger(),
		validator: NewValidationHelper(),
		config:    cfg,
	}
}

// InvestResult summarizes one successful investment.
type InvestResult struct {
	TitleID         string  `json:"titleId"`
	Amount          int64   `json:"amount"`
	ExpectedReturn  int64   `json:"expectedReturn"`
	MileageEarned   int64   `json:"mileageEarned"`
	GoalReached     bool    `json:"goalReached"` // the title just hit 100%
	TopUp           bool    `json:"topUp"`       // added to an existing position
	NewBalance      int64   `json:"newBalance"`
	TotalInvestment int64   `json:"totalInvestment"` // accumulated position after this call
	ProgressPercent float64 `json:"progressPercent"`
	Status          string  `json:"status"`
}

// CancelResult summarizes one reversed investment.
type CancelResult struct {
	TitleID        string `json:"titleId"`
	RefundedAmount int64  `json:"refundedAmount"`
	NewBalance     int64  `json:"newBalance"`
}

// RechargeResult summarizes one cash top-up.
type RechargeResult struct {
	Amount     int64 `json:"amount"`
	Fee        int64 `json:"fee"`
	NewBalance int64 `json:"newBalance"`
}

// ValidateAmount checks a proposed investment against the business rules:
// minimum, unit multiple, ceiling, balance, and remaining goal room.
// Out-of-range amounts are rejected, never clamped.
func (s *LedgerService) ValidateAmount(balance int64, title *models.Title, progress *models.ProgressRecord, amount int64) error {
	if amount < s.config.MinInvestment {
		return ErrBelowMinimum
	}
	if amount%s.config.InvestmentUnit != 0 {
		return ErrNotUnitMultiple
	}
	if amount > s.config.MaxInvestment {
		return ErrAboveMaximum
	}
	if amount > balance {
		return ErrInsufficientBalance
	}
	remaining := title.GoalAmount - progress.CurrentRaised
	if remaining < 0 {
		remaining = 0
	}
	if amount > remaining {
		return ErrExceedsRemaining
	}
	return nil
}

// Invest moves amount won from the user's balance into titleID's funding
// total, upserts the user's position, accrues mileage and notifies
// subscribers. All four documents are committed in one store transaction.
func (s *LedgerService) Invest(ctx context.Context, userID, titleID string, amount int64) (*InvestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	title, ok := s.catalog.Get(titleID)
	if !ok {
		return nil, ErrTitleNotFound
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	progress, err := s.readProgress(ctx, title)
	if err != nil {
		return nil, err
	}

	records, err := s.store.GetInvestments(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.ValidateAmount(user.Balance, title, progress, amount); err != nil {
		return nil, err
	}

	mileage, err := s.store.GetMileage(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	user.Balance -= amount

	existing := indexOfTitle(records, titleID)
	isNewInvestor := existing < 0

	progress.CurrentRaised += amount
	if isNewInvestor {
		progress.TotalInvestors++
	}
	progress.LastUpdated = now

	pct := float64(progress.CurrentRaised) / float64(title.GoalAmount) * 100
	completed := pct >= 100
	status := models.InvestmentInProgress
	if completed {
		status = models.InvestmentCompleted
	}

	var totalInvestment int64
	if isNewInvestor {
		records = append(records, models.InvestmentRecord{
			ID:          uuid.NewString(),
			TitleID:     title.ID,
			Title:       title.Title,
			Thumbnail:   title.Thumbnail,
			Amount:      amount,
			Date:        now,
			ExpectedROI: title.ExpectedROI,
			Status:      status,
		})
		totalInvestment = amount
	} else {
		records[existing].Amount += amount
		records[existing].Date = now
		records[existing].Status = status
		totalInvestment = records[existing].Amount
	}

	reward := amount / s.config.WonPerMileagePoint
	if reward > 0 {
		mileage.TotalMileage += reward
		mileage.History = append([]models.MileageEntry{{
			ID:          uuid.NewString(),
			Date:        now,
			Amount:      reward,
			Type:        models.MileageEarned,
			Description: "웹툰 투자 적립: " + title.Title,
			Source:      "investment",
		}}, mileage.History...)
	}

	if err := s.store.CommitInvestment(ctx, userID, user, titleID, progress, records, mileage); err != nil {
		s.audit.LogError(userID, titleID, err)
		return nil, err
	}

	s.audit.LogInvestment(userID, titleID, amount, status)

	s.bus.Publish(ctx, events.InvestmentUpdated{UserID: userID, TitleID: titleID, Amount: amount, NewBalance: user.Balance, TotalInvestment: totalInvestment})
	s.bus.Publish(ctx, events.TitleProgressUpdated{TitleID: titleID, CurrentRaised: progress.CurrentRaised, TotalInvestors: progress.TotalInvestors, ProgressPercent: progress.ProgressPercent(title.GoalAmount)})
	s.bus.Publish(ctx, events.BalanceChanged{UserID: userID, NewBalance: user.Balance})
	if reward > 0 {
		s.bus.Publish(ctx, events.MileageUpdated{UserID: userID, TotalMileage: mileage.TotalMileage})
	}

	return &InvestResult{
		TitleID:         titleID,
		Amount:          amount,
		ExpectedReturn:  int64(math.Round(float64(amount) * (1 + title.ExpectedROI/100))),
		MileageEarned:   reward,
		GoalReached:     completed,
		TopUp:           !isNewInvestor,
		NewBalance:      user.Balance,
		TotalInvestment: totalInvestment,
		ProgressPercent: progress.ProgressPercent(title.GoalAmount),
		Status:          status,
	}, nil
}

// Cancel reverses one investment record in full within the cancellation
// window: balance credited, record removed, title progress decremented
// (floored at zero) and a pending refund appended to the charge history.
func (s *LedgerService) Cancel(ctx context.Context, userID, investmentID string) (*CancelResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.store.GetInvestments(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range records {
		if records[i].ID == investmentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrInvestmentNotFound
	}
	record := records[idx]

	// Date is mandatory on every record; a missing one is malformed, not
	// implicitly eligible or ineligible.
	if record.Date.IsZero() {
		return nil, ErrMissingDate
	}
	if time.Since(record.Date) >= s.config.CancelWindow {
		return nil, ErrCancelWindowClosed
	}

	title, ok := s.catalog.Get(record.TitleID)
	if !ok {
		return nil, ErrTitleNotFound
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	progress, err := s.readProgress(ctx, title)
	if err != nil {
		return nil, err
	}

	history, err := s.store.GetChargeHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Balance += record.Amount

	records = append(records[:idx], records[idx+1:]...)

	progress.CurrentRaised -= record.Amount
	if progress.CurrentRaised < 0 {
		progress.CurrentRaised = 0
	}
	progress.TotalInvestors--
	if progress.TotalInvestors < 0 {
		progress.TotalInvestors = 0
	}
	progress.LastUpdated = time.Now()

	history = append([]models.ChargeRecord{{
		ID:      uuid.NewString(),
		Amount:  record.Amount,
		Method:  "투자 취소",
		Status:  models.ChargeStatusPending,
		Date:    time.Now(),
		Fee:     0,
		Type:    models.ChargeTypeRefund,
		TitleID: record.TitleID,
	}}, history...)

	if err := s.store.CommitCancellation(ctx, userID, user, record.TitleID, progress, records, history); err != nil {
		s.audit.LogError(userID, record.TitleID, err)
		return nil, err
	}

	s.audit.LogCancellation(userID, record.TitleID, record.Amount, models.ChargeStatusPending)

	s.bus.Publish(ctx, events.InvestmentUpdated{UserID: userID, TitleID: record.TitleID, Amount: -record.Amount, NewBalance: user.Balance})
	s.bus.Publish(ctx, events.TitleProgressUpdated{TitleID: record.TitleID, CurrentRaised: progress.CurrentRaised, TotalInvestors: progress.TotalInvestors, ProgressPercent: progress.ProgressPercent(title.GoalAmount)})
	s.bus.Publish(ctx, events.BalanceChanged{UserID: userID, NewBalance: user.Balance})
	s.bus.Publish(ctx, events.ChargeHistoryUpdated{UserID: userID})

	return &CancelResult{
		TitleID:        record.TitleID,
		RefundedAmount: record.Amount,
		NewBalance:     user.Balance,
	}, nil
}

// Recharge credits the balance directly and appends a completed charge
// record. Recharges at or above the free threshold carry no fee.
func (s *LedgerService) Recharge(ctx context.Context, userID string, amount int64, method string) (*RechargeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	history, err := s.store.GetChargeHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	fee := int64(0)
	if amount < s.config.RechargeFreeFrom {
		fee = s.config.RechargeFee
	}

	user.Balance += amount

	history = append([]models.ChargeRecord{{
		ID:     uuid.NewString(),
		Amount: amount,
		Method: method,
		Status: models.ChargeStatusCompleted,
		Date:   time.Now(),
		Fee:    fee,
		Type:   models.ChargeTypeCharge,
	}}, history...)

	if err := s.store.CommitRecharge(ctx, userID, user, history); err != nil {
		s.audit.LogError(userID, "", err)
		return nil, err
	}

	s.audit.LogRecharge(userID, amount, fee, models.ChargeStatusCompleted)

	s.bus.Publish(ctx, events.BalanceChanged{UserID: userID, NewBalance: user.Balance})
	s.bus.Publish(ctx, events.ChargeHistoryUpdated{UserID: userID})

	return &RechargeResult{Amount: amount, Fee: fee, NewBalance: user.Balance}, nil
}

// readProgress loads a title's overlay, falling back to the catalog base
// values when no investment has touched the title yet.
func (s *LedgerService) readProgress(ctx context.Context, title *models.Title) (*models.ProgressRecord, error) {
	progress, err := s.store.GetProgress(ctx, title.ID)
	if errors.Is(err, store.ErrNotFound) {
		return catalog.BaseProgress(title), nil
	}
	if err != nil {
		return nil, err
	}
	return progress, nil
}

func indexOfTitle(records []models.InvestmentRecord, titleID string) int {
	for i := range records {
		if records[i].TitleID == titleID {
			return i
		}
	}
	return -1
}

// HTTP surface

type investRequest struct {
	TitleID string `json:"titleId" validate:"required"`
	Amount  int64  `json:"amount" validate:"required,gt=0"`
}

// ValidateInvestment checks an amount without mutating anything
// @Summary Validate investment amount
// @Description Run the ledger's amount rules against a proposed investment without applying it
// @Tags investments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body investRequest true "Validation request"
// @Success 200 {object} object{valid=bool,reason=string}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /investments/validate [post]
func (s *LedgerService) ValidateInvestment(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	req, ok := s.decodeInvestRequest(w, r)
	if !ok {
		return
	}

	title, found := s.catalog.Get(req.TitleID)
	if !found {
		SendErrorResponse(w, "Title not found", http.StatusNotFound, nil)
		return
	}

	user, err := s.store.GetUser(r.Context(), userID)
	if err != nil {
		log.Printf("[LEDGER] Failed to read user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to validate amount", http.StatusInternalServerError, nil)
		return
	}

	progress, err := s.readProgress(r.Context(), title)
	if err != nil {
		log.Printf("[LEDGER] Failed to read progress for %s: %v", req.TitleID, err)
		SendErrorResponse(w, "Failed to validate amount", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := s.ValidateAmount(user.Balance, title, progress, req.Amount); err != nil {
		json.NewEncoder(w).Encode(map[string]any{"valid": false, "reason": userMessage(err)})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"valid": true})
}

// CreateInvestment applies a validated investment
// @Summary Invest in a title
// @Description Debit the balance, raise the title's funding total, upsert the position and accrue mileage
// @Tags investments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body investRequest true "Investment request"
// @Success 201 {object} InvestResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /investments [post]
func (s *LedgerService) CreateInvestment(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	req, ok := s.decodeInvestRequest(w, r)
	if !ok {
		return
	}

	result, err := s.Invest(r.Context(), userID, req.TitleID, req.Amount)
	if err != nil {
		s.writeLedgerError(w, err, "Failed to process investment")
		return
	}

	log.Printf("[LEDGER] Investment processed - user: %s, title: %s, amount: %d", userID, req.TitleID, req.Amount)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}

// ListInvestments returns the user's positions
// @Summary List investments
// @Description Get the authenticated user's investment records
// @Tags investments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{investments=[]models.InvestmentRecord,count=int}
// @Failure 401 {object} ErrorResponse
// @Router /investments [get]
func (s *LedgerService) ListInvestments(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	records, err := s.store.GetInvestments(r.Context(), userID)
	if err != nil {
		log.Printf("[LEDGER] Failed to list investments for %s: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch investments", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"investments": records,
		"count":       len(records),
	})
}

// CancelInvestment reverses one investment
// @Summary Cancel an investment
// @Description Reverse an investment in full within the cancellation window
// @Tags investments
// @Produce json
// @Security BearerAuth
// @Param investmentId path string true "Investment record ID"
// @Success 200 {object} CancelResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /investments/{investmentId} [delete]
func (s *LedgerService) CancelInvestment(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	investmentID := chi.URLParam(r, "investmentId")
	if investmentID == "" {
		SendErrorResponse(w, "investmentId is required", http.StatusBadRequest, nil)
		return
	}

	result, err := s.Cancel(r.Context(), userID, investmentID)
	if err != nil {
		s.writeLedgerError(w, err, "Failed to cancel investment")
		return
	}

	log.Printf("[LEDGER] Investment cancelled - user: %s, investment: %s, refunded: %d", userID, investmentID, result.RefundedAmount)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *LedgerService) decodeInvestRequest(w http.ResponseWriter, r *http.Request) (investRequest, bool) {
	var req investRequest

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return req, false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return req, false
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return req, false
	}

	return req, true
}

func (s *LedgerService) writeLedgerError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrTitleNotFound), errors.Is(err, ErrInvestmentNotFound):
		SendErrorResponse(w, userMessage(err), http.StatusNotFound, nil)
	case errors.Is(err, ErrCancelWindowClosed):
		SendErrorResponse(w, userMessage(err), http.StatusConflict, nil)
	case errors.Is(err, ErrBelowMinimum), errors.Is(err, ErrAboveMaximum),
		errors.Is(err, ErrNotUnitMultiple), errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrExceedsRemaining), errors.Is(err, ErrMissingDate):
		SendErrorResponse(w, userMessage(err), http.StatusBadRequest, nil)
	default:
		log.Printf("[LEDGER] Unexpected error: %v", err)
		SendErrorResponse(w, fallback, http.StatusInternalServerError, nil)
	}
}

// userMessage maps ledger errors to the messages shown near the input.
func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrBelowMinimum):
		return "Minimum investment is 10,000 won"
	case errors.Is(err, ErrAboveMaximum):
		return "Amount exceeds the maximum investment"
	case errors.Is(err, ErrNotUnitMultiple):
		return "Amount must be in 10,000-won units"
	case errors.Is(err, ErrInsufficientBalance):
		return "Insufficient balance"
	case errors.Is(err, ErrExceedsRemaining):
		return "Amount exceeds the remaining funding goal"
	case errors.Is(err, ErrTitleNotFound):
		return "Title not found"
	case errors.Is(err, ErrInvestmentNotFound):
		return "Investment not found"
	case errors.Is(err, ErrCancelWindowClosed):
		return "Cancellation is only available within 24 hours"
	case errors.Is(err, ErrMissingDate):
		return "Investment record is malformed"
	default:
		return err.Error()
	}
}
