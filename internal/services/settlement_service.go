package services

import (
	"context"
	"log"
	"time"

	"github.com/toonvest/backend/internal/config"
	"github.com/toonvest/backend/internal/models"
)

// SettlementStore is the slice of the document store the settlement job needs.
type SettlementStore interface {
	ChargeHistoryUserIDs(ctx context.Context) ([]string, error)
	GetChargeHistory(ctx context.Context, userID string) ([]models.ChargeRecord, error)
	SetChargeHistory(ctx context.Context, userID string, history []models.ChargeRecord) error
}

// SettlementService completes pending refunds once the settlement delay
// has passed. It runs on a schedule from main.
type SettlementService struct {
	store  SettlementStore
	config *config.LedgerConfig
}

func NewSettlementService(store SettlementStore, cfg *config.LedgerConfig) *SettlementService {
	return &SettlementService{store: store, config: cfg}
}

// SettlePendingRefunds scans every charge history and flips pending
// refunds older than the settlement delay to completed.
func (s *SettlementService) SettlePendingRefunds(ctx context.Context) error {
	userIDs, err := s.store.ChargeHistoryUserIDs(ctx)
	if err != nil {
		return err
	}

	settled := 0
	for _, userID := range userIDs {
		history, err := s.store.GetChargeHistory(ctx, userID)
		if err != nil {
			log.Printf("[SETTLEMENT] Failed to read history for %s: %v", userID, err)
			continue
		}

		changed := false
		cutoff := time.Now().Add(-s.config.SettlementDelay)
		for i := range history {
			if history[i].Type == models.ChargeTypeRefund &&
				history[i].Status == models.ChargeStatusPending &&
				history[i].Date.Before(cutoff) {
				history[i].Status = models.ChargeStatusCompleted
				changed = true
				settled++
			}
		}

		if !changed {
			continue
		}
		if err := s.store.SetChargeHistory(ctx, userID, history); err != nil {
			log.Printf("[SETTLEMENT] Failed to write history for %s: %v", userID, err)
		}
	}

	if settled > 0 {
		log.Printf("[SETTLEMENT] Completed %d pending refunds", settled)
	}
	return nil
}
