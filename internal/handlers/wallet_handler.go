package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/toonvest/backend/internal/models"
	"github.com/toonvest/backend/internal/services"
	"github.com/toonvest/backend/internal/store"
)

type WalletHandler struct {
	ledger    *services.LedgerService
	qr        *services.QRService
	store     *store.Store
	validator *services.ValidationHelper
}

func NewWalletHandler(ledger *services.LedgerService, qr *services.QRService, docStore *store.Store) *WalletHandler {
	return &WalletHandler{
		ledger:    ledger,
		qr:        qr,
		store:     docStore,
		validator: services.NewValidationHelper(),
	}
}

// Recharge credits the user's cash balance
// @Summary Recharge balance
// @Description Credit the balance and append a charge record; amounts below the threshold carry a fixed fee
// @Tags wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{amount=int64,method=string} true "Recharge request"
// @Success 200 {object} services.RechargeResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /wallet/recharge [post]
func (h *WalletHandler) Recharge(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Amount int64  `json:"amount" validate:"required,gt=0"`
		Method string `json:"method" validate:"required"`
	}

	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.ledger.Recharge(r.Context(), userID, req.Amount, req.Method)
	if err != nil {
		log.Printf("[WALLET] Recharge failed for %s: %v", userID, err)
		services.SendErrorResponse(w, "Failed to process recharge", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// GenerateQR creates a recharge QR code
// @Summary Generate recharge QR
// @Description Generate a short-lived QR code carrying a recharge amount
// @Tags wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{amount=int64} true "QR generation request"
// @Success 200 {object} object{qrCode=string,qrImage=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /wallet/qr/generate [post]
func (h *WalletHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Amount int64 `json:"amount" validate:"required,gt=0"`
	}

	if !h.decode(w, r, &req) {
		return
	}

	code, image, err := h.qr.GenerateRechargeQR(r.Context(), userID, req.Amount)
	if err != nil {
		log.Printf("[WALLET] QR generation failed for %s: %v", userID, err)
		services.SendErrorResponse(w, "Failed to generate QR code", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"qrCode":  code,
		"qrImage": image,
	})
}

// ProcessQR consumes a recharge QR code
// @Summary Process recharge QR
// @Description Consume a recharge QR code and credit the balance it carries
// @Tags wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{qrCode=string} true "QR process request"
// @Success 200 {object} services.RechargeResult
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /wallet/qr/process [post]
func (h *WalletHandler) ProcessQR(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		QRCode string `json:"qrCode" validate:"required"`
	}

	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.qr.ProcessRechargeQR(r.Context(), req.QRCode)
	if err != nil {
		services.SendErrorResponse(w, "Invalid or expired QR code", http.StatusBadRequest, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// GetHistory returns the charge/refund history
// @Summary Get charge history
// @Description Get the user's charge, refund and investment transaction records, newest first
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{history=[]models.ChargeRecord,count=int}
// @Failure 401 {object} services.ErrorResponse
// @Router /wallet/history [get]
func (h *WalletHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	history, err := h.store.GetChargeHistory(r.Context(), userID)
	if err != nil {
		log.Printf("[WALLET] Failed to read history for %s: %v", userID, err)
		services.SendErrorResponse(w, "Failed to fetch history", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"history": history,
		"count":   len(history),
	})
}

// ListPaymentMethods returns the registered payment methods
// @Summary List payment methods
// @Description Get the user's registered payment methods
// @Tags wallet
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.PaymentMethod
// @Failure 401 {object} services.ErrorResponse
// @Router /wallet/payment-methods [get]
func (h *WalletHandler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	methods, err := h.store.GetPaymentMethods(r.Context(), userID)
	if err != nil {
		log.Printf("[WALLET] Failed to read payment methods for %s: %v", userID, err)
		services.SendErrorResponse(w, "Failed to fetch payment methods", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(methods)
}

// AddPaymentMethod registers a payment method
// @Summary Add payment method
// @Description Register a payment method; the first one becomes the default
// @Tags wallet
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{type=string,name=string,number=string} true "Payment method"
// @Success 201 {object} models.PaymentMethod
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /wallet/payment-methods [post]
func (h *WalletHandler) AddPaymentMethod(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Type   string `json:"type" validate:"required,oneof=card bank"`
		Name   string `json:"name" validate:"required"`
		Number string `json:"number" validate:"required"`
	}

	if !h.decode(w, r, &req) {
		return
	}

	methods, err := h.store.GetPaymentMethods(r.Context(), userID)
	if err != nil {
		log.Printf("[WALLET] Failed to read payment methods for %s: %v", userID, err)
		services.SendErrorResponse(w, "Failed to add payment method", http.StatusInternalServerError, nil)
		return
	}

	method := models.PaymentMethod{
		ID:        uuid.NewString(),
		Type:      req.Type,
		Name:      req.Name,
		Number:    req.Number,
		IsDefault: len(methods) == 0,
	}
	methods = append(methods, method)

	if err := h.store.SetPaymentMethods(r.Context(), userID, methods); err != nil {
		log.Printf("[WALLET] Failed to save payment methods for %s: %v", userID, err)
		services.SendErrorResponse(w, "Failed to add payment method", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(method)
}

func (h *WalletHandler) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}

	return true
}
