package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/toonvest/backend/internal/models"
)

func TestSettlementService_SettlePendingRefunds(t *testing.T) {
	ctx := context.Background()

	t.Run("old pending refunds are completed", func(t *testing.T) {
		fake := newFakeStore()
		fake.history["1"] = []models.ChargeRecord{
			{ID: "r-1", Type: models.ChargeTypeRefund, Status: models.ChargeStatusPending, Date: time.Now().Add(-2 * time.Hour)},
			{ID: "c-1", Type: models.ChargeTypeCharge, Status: models.ChargeStatusCompleted, Date: time.Now().Add(-2 * time.Hour)},
		}
		service := NewSettlementService(fake, testLedgerConfig())

		err := service.SettlePendingRefunds(ctx)
		assert.NoError(t, err)

		history := fake.history["1"]
		assert.Equal(t, models.ChargeStatusCompleted, history[0].Status)
		assert.Equal(t, models.ChargeStatusCompleted, history[1].Status)
	})

	t.Run("recent pending refunds stay pending", func(t *testing.T) {
		fake := newFakeStore()
		fake.history["1"] = []models.ChargeRecord{
			{ID: "r-1", Type: models.ChargeTypeRefund, Status: models.ChargeStatusPending, Date: time.Now().Add(-10 * time.Minute)},
		}
		service := NewSettlementService(fake, testLedgerConfig())

		err := service.SettlePendingRefunds(ctx)
		assert.NoError(t, err)
		assert.Equal(t, models.ChargeStatusPending, fake.history["1"][0].Status)
	})

	t.Run("settles across multiple users", func(t *testing.T) {
		fake := newFakeStore()
		fake.history["1"] = []models.ChargeRecord{
			{ID: "r-1", Type: models.ChargeTypeRefund, Status: models.ChargeStatusPending, Date: time.Now().Add(-2 * time.Hour)},
		}
		fake.history["2"] = []models.ChargeRecord{
			{ID: "r-2", Type: models.ChargeTypeRefund, Status: models.ChargeStatusPending, Date: time.Now().Add(-3 * time.Hour)},
		}
		service := NewSettlementService(fake, testLedgerConfig())

		err := service.SettlePendingRefunds(ctx)
		assert.NoError(t, err)
		assert.Equal(t, models.ChargeStatusCompleted, fake.history["1"][0].Status)
		assert.Equal(t, models.ChargeStatusCompleted, fake.history["2"][0].Status)
	})
}
