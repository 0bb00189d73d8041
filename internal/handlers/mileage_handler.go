package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/toonvest/backend/internal/services"
)

type MileageHandler struct {
	service   *services.MileageService
	validator *services.ValidationHelper
}

func NewMileageHandler(service *services.MileageService) *MileageHandler {
	return &MileageHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// GetMileage returns the user's mileage ledger
// @Summary Get mileage
// @Description Get the authenticated user's mileage balance, history and exchanged items
// @Tags mileage
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.MileageLedger
// @Failure 401 {object} services.ErrorResponse
// @Router /mileage [get]
func (h *MileageHandler) GetMileage(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	ledger, err := h.service.Ledger(r.Context(), userID)
	if err != nil {
		log.Printf("[MILEAGE] Failed to read ledger for %s: %v", userID, err)
		services.SendErrorResponse(w, "Failed to fetch mileage", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ledger)
}

// ListRewards returns the redeemable reward catalog
// @Summary List rewards
// @Description Get the rewards mileage points can be exchanged for
// @Tags mileage
// @Produce json
// @Security BearerAuth
// @Success 200 {array} services.Reward
// @Router /mileage/rewards [get]
func (h *MileageHandler) ListRewards(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.service.Rewards())
}

// CheckIn performs the daily attendance check-in
// @Summary Daily check-in
// @Description Award attendance points, at most once per calendar day
// @Tags mileage
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.CheckInResult
// @Failure 401 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /mileage/check-in [post]
func (h *MileageHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	result, err := h.service.CheckIn(r.Context(), userID)
	if errors.Is(err, services.ErrAlreadyCheckedIn) {
		services.SendErrorResponse(w, "Already checked in today", http.StatusConflict, nil)
		return
	}
	if err != nil {
		log.Printf("[MILEAGE] Check-in failed for %s: %v", userID, err)
		services.SendErrorResponse(w, "Failed to check in", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// Redeem exchanges points for a reward
// @Summary Redeem a reward
// @Description Deduct the reward's point cost and record the exchanged item with delivery contact
// @Tags mileage
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{rewardId=string,contact=string} true "Redemption request"
// @Success 200 {object} models.ExchangedItem
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /mileage/redeem [post]
func (h *MileageHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		RewardID string `json:"rewardId" validate:"required"`
		Contact  string `json:"contact" validate:"required"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	item, err := h.service.Redeem(r.Context(), userID, req.RewardID, req.Contact)
	switch {
	case errors.Is(err, services.ErrRewardNotFound):
		services.SendErrorResponse(w, "Reward not found", http.StatusNotFound, nil)
		return
	case errors.Is(err, services.ErrInsufficientPoints):
		services.SendErrorResponse(w, "Insufficient mileage points", http.StatusBadRequest, nil)
		return
	case err != nil:
		log.Printf("[MILEAGE] Redemption failed for %s: %v", userID, err)
		services.SendErrorResponse(w, "Failed to redeem reward", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(item)
}
