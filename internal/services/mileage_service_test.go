package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/toonvest/backend/internal/events"
	"github.com/toonvest/backend/internal/models"
)

func newTestMileage(fake *fakeStore) *MileageService {
	return NewMileageService(fake, events.NewBus(), testLedgerConfig())
}

func TestMileageService_CheckIn(t *testing.T) {
	ctx := context.Background()

	t.Run("first check-in awards points and starts a streak", func(t *testing.T) {
		fake := newFakeStore()
		service := newTestMileage(fake)

		result, err := service.CheckIn(ctx, "1")
		assert.NoError(t, err)

		assert.Equal(t, int64(5), result.PointsAwarded)
		assert.Equal(t, int64(5), result.TotalMileage)
		assert.Equal(t, 1, result.Streak)

		ledger := fake.mileage["1"]
		assert.Equal(t, time.Now().Format("2006-01-02"), ledger.LastAttendanceDate)
		assert.Len(t, ledger.History, 1)
		assert.Equal(t, "attendance", ledger.History[0].Source)
	})

	t.Run("second check-in on the same day is rejected", func(t *testing.T) {
		fake := newFakeStore()
		service := newTestMileage(fake)

		_, err := service.CheckIn(ctx, "1")
		assert.NoError(t, err)

		_, err = service.CheckIn(ctx, "1")
		assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
		assert.Equal(t, int64(5), fake.mileage["1"].TotalMileage)
	})

	t.Run("consecutive days grow the streak", func(t *testing.T) {
		fake := newFakeStore()
		fake.mileage["1"] = &models.MileageLedger{
			TotalMileage:       40,
			LastAttendanceDate: time.Now().AddDate(0, 0, -1).Format("2006-01-02"),
			AttendanceStreak:   3,
		}
		service := newTestMileage(fake)

		result, err := service.CheckIn(ctx, "1")
		assert.NoError(t, err)
		assert.Equal(t, 4, result.Streak)
		assert.Equal(t, int64(45), result.TotalMileage)
	})

	t.Run("a missed day resets the streak", func(t *testing.T) {
		fake := newFakeStore()
		fake.mileage["1"] = &models.MileageLedger{
			LastAttendanceDate: time.Now().AddDate(0, 0, -3).Format("2006-01-02"),
			AttendanceStreak:   7,
		}
		service := newTestMileage(fake)

		result, err := service.CheckIn(ctx, "1")
		assert.NoError(t, err)
		assert.Equal(t, 1, result.Streak)
	})
}

func TestMileageService_Redeem(t *testing.T) {
	ctx := context.Background()

	t.Run("successful redemption deducts points", func(t *testing.T) {
		fake := newFakeStore()
		fake.mileage["1"] = &models.MileageLedger{TotalMileage: 600}
		service := newTestMileage(fake)

		item, err := service.Redeem(ctx, "1", "rw-002", "010-1234-5678")
		assert.NoError(t, err)

		assert.Equal(t, "rw-002", item.RewardID)
		assert.Equal(t, int64(500), item.Cost)
		assert.Equal(t, "010-1234-5678", item.Contact)

		ledger := fake.mileage["1"]
		assert.Equal(t, int64(100), ledger.TotalMileage)
		assert.Len(t, ledger.ExchangedItems, 1)
		assert.Len(t, ledger.History, 1)
		assert.Equal(t, models.MileageUsed, ledger.History[0].Type)
	})

	t.Run("insufficient points", func(t *testing.T) {
		fake := newFakeStore()
		fake.mileage["1"] = &models.MileageLedger{TotalMileage: 50}
		service := newTestMileage(fake)

		_, err := service.Redeem(ctx, "1", "rw-002", "010-1234-5678")
		assert.ErrorIs(t, err, ErrInsufficientPoints)
		assert.Equal(t, int64(50), fake.mileage["1"].TotalMileage)
	})

	t.Run("unknown reward", func(t *testing.T) {
		fake := newFakeStore()
		fake.mileage["1"] = &models.MileageLedger{TotalMileage: 5000}
		service := newTestMileage(fake)

		_, err := service.Redeem(ctx, "1", "rw-999", "010-1234-5678")
		assert.ErrorIs(t, err, ErrRewardNotFound)
	})
}

func TestMileageService_Rewards(t *testing.T) {
	service := newTestMileage(newFakeStore())
	rewards := service.Rewards()
	assert.NotEmpty(t, rewards)
	for _, reward := range rewards {
		assert.NotEmpty(t, reward.ID)
		assert.NotEmpty(t, reward.Name)
		assert.Greater(t, reward.Cost, int64(0))
	}
}
