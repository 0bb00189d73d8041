package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/toonvest/backend/internal/config"
	"github.com/toonvest/backend/internal/events"
	"github.com/toonvest/backend/internal/models"
)

var (
	ErrAlreadyCheckedIn   = errors.New("already checked in today")
	ErrRewardNotFound     = errors.New("reward not found")
	ErrInsufficientPoints = errors.New("insufficient mileage points")
)

// Reward is a redeemable catalog item.
type Reward struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Cost int64  `json:"cost"`
}

// MileageStore is the slice of the document store the mileage service needs.
type MileageStore interface {
	GetMileage(ctx context.Context, userID string) (*models.MileageLedger, error)
	CommitMileage(ctx context.Context, userID string, mileage *models.MileageLedger) error
}

// MileageService awards points from daily check-in and redeems rewards.
// Investment accrual is handled by the ledger so it commits together with
// the investment itself.
type MileageService struct {
	store   MileageStore
	bus     *events.Bus
	config  *config.LedgerConfig
	rewards []Reward

	mu sync.Mutex
}

func NewMileageService(store MileageStore, bus *events.Bus, cfg *config.LedgerConfig) *MileageService {
	return &MileageService{
		store:   store,
		bus:     bus,
		config:  cfg,
		rewards: defaultRewards,
	}
}

// CheckInResult summarizes one successful daily check-in.
type CheckInResult struct {
	PointsAwarded int64 `json:"pointsAwarded"`
	TotalMileage  int64 `json:"totalMileage"`
	Streak        int   `json:"streak"`
}

// CheckIn awards the daily attendance points at most once per calendar
// day. The streak grows on consecutive days and resets otherwise.
func (s *MileageService) CheckIn(ctx context.Context, userID string) (*CheckInResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.store.GetMileage(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	today := now.Format("2006-01-02")
	if ledger.LastAttendanceDate == today {
		return nil, ErrAlreadyCheckedIn
	}

	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	if ledger.LastAttendanceDate == yesterday {
		ledger.AttendanceStreak++
	} else {
		ledger.AttendanceStreak = 1
	}
	ledger.LastAttendanceDate = today

	points := s.config.CheckInPoints
	ledger.TotalMileage += points
	ledger.History = append([]models.MileageEntry{{
		ID:          uuid.NewString(),
		Date:        now,
		Amount:      points,
		Type:        models.MileageEarned,
		Description: "출석 체크 보상",
		Source:      "attendance",
	}}, ledger.History...)

	if err := s.store.CommitMileage(ctx, userID, ledger); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.MileageUpdated{UserID: userID, TotalMileage: ledger.TotalMileage})

	return &CheckInResult{
		PointsAwarded: points,
		TotalMileage:  ledger.TotalMileage,
		Streak:        ledger.AttendanceStreak,
	}, nil
}

// Redeem exchanges points for a reward and records the delivery contact.
// There is no reversal path for a redemption.
func (s *MileageService) Redeem(ctx context.Context, userID, rewardID, contact string) (*models.ExchangedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reward, ok := s.reward(rewardID)
	if !ok {
		return nil, ErrRewardNotFound
	}

	ledger, err := s.store.GetMileage(ctx, userID)
	if err != nil {
		return nil, err
	}

	if ledger.TotalMileage < reward.Cost {
		return nil, ErrInsufficientPoints
	}

	now := time.Now()
	ledger.TotalMileage -= reward.Cost
	ledger.History = append([]models.MileageEntry{{
		ID:          uuid.NewString(),
		Date:        now,
		Amount:      reward.Cost,
		Type:        models.MileageUsed,
		Description: "리워드 교환: " + reward.Name,
		Source:      "exchange",
	}}, ledger.History...)

	item := models.ExchangedItem{
		ID:       uuid.NewString(),
		RewardID: reward.ID,
		Name:     reward.Name,
		Cost:     reward.Cost,
		Date:     now,
		Contact:  contact,
	}
	ledger.ExchangedItems = append(ledger.ExchangedItems, item)

	if err := s.store.CommitMileage(ctx, userID, ledger); err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, events.MileageUpdated{UserID: userID, TotalMileage: ledger.TotalMileage})

	return &item, nil
}

// Ledger returns the user's mileage document.
func (s *MileageService) Ledger(ctx context.Context, userID string) (*models.MileageLedger, error) {
	return s.store.GetMileage(ctx, userID)
}

// Rewards returns the redeemable reward catalog.
func (s *MileageService) Rewards() []Reward {
	return s.rewards
}

func (s *MileageService) reward(rewardID string) (Reward, bool) {
	for _, r := range s.rewards {
		if r.ID == rewardID {
			return r, true
		}
	}
	return Reward{}, false
}

var defaultRewards = []Reward{
	{ID: "rw-001", Name: "웹툰 쿠키 10개", Cost: 100},
	{ID: "rw-002", Name: "편의점 상품권 5,000원", Cost: 500},
	{ID: "rw-003", Name: "한정판 굿즈 세트", Cost: 2000},
}
