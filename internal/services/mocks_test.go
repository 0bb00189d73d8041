package services

import (
	"context"
	"errors"

	"github.com/toonvest/backend/internal/models"
	"github.com/toonvest/backend/internal/store"
)

// fakeStore is an in-memory document store for service tests. Get methods
// return copies so uncommitted mutations never leak back into the store;
// only the Commit methods persist state, mirroring the real pipeline.
type fakeStore struct {
	users       map[string]*models.User
	progress    map[string]*models.ProgressRecord
	investments map[string][]models.InvestmentRecord
	mileage     map[string]*models.MileageLedger
	history     map[string][]models.ChargeRecord

	failCommit bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       make(map[string]*models.User),
		progress:    make(map[string]*models.ProgressRecord),
		investments: make(map[string][]models.InvestmentRecord),
		mileage:     make(map[string]*models.MileageLedger),
		history:     make(map[string][]models.ChargeRecord),
	}
}

func (f *fakeStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, errors.New("user not found")
	}
	copied := *user
	return &copied, nil
}

func (f *fakeStore) GetProgress(ctx context.Context, titleID string) (*models.ProgressRecord, error) {
	progress, ok := f.progress[titleID]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *progress
	return &copied, nil
}

func (f *fakeStore) GetInvestments(ctx context.Context, userID string) ([]models.InvestmentRecord, error) {
	return append([]models.InvestmentRecord{}, f.investments[userID]...), nil
}

func (f *fakeStore) GetMileage(ctx context.Context, userID string) (*models.MileageLedger, error) {
	ledger, ok := f.mileage[userID]
	if !ok {
		return &models.MileageLedger{History: []models.MileageEntry{}}, nil
	}
	copied := *ledger
	copied.History = append([]models.MileageEntry{}, ledger.History...)
	copied.ExchangedItems = append([]models.ExchangedItem{}, ledger.ExchangedItems...)
	return &copied, nil
}

func (f *fakeStore) GetChargeHistory(ctx context.Context, userID string) ([]models.ChargeRecord, error) {
	return append([]models.ChargeRecord{}, f.history[userID]...), nil
}

func (f *fakeStore) SetChargeHistory(ctx context.Context, userID string, history []models.ChargeRecord) error {
	f.history[userID] = history
	return nil
}

func (f *fakeStore) ChargeHistoryUserIDs(ctx context.Context) ([]string, error) {
	var userIDs []string
	for userID := range f.history {
		userIDs = append(userIDs, userID)
	}
	return userIDs, nil
}

func (f *fakeStore) CommitInvestment(ctx context.Context, userID string, user *models.User, titleID string, progress *models.ProgressRecord, records []models.InvestmentRecord, mileage *models.MileageLedger) error {
	if f.failCommit {
		return errors.New("commit failed")
	}
	f.users[userID] = user
	f.progress[titleID] = progress
	f.investments[userID] = records
	f.mileage[userID] = mileage
	return nil
}

func (f *fakeStore) CommitCancellation(ctx context.Context, userID string, user *models.User, titleID string, progress *models.ProgressRecord, records []models.InvestmentRecord, history []models.ChargeRecord) error {
	if f.failCommit {
		return errors.New("commit failed")
	}
	f.users[userID] = user
	f.progress[titleID] = progress
	f.investments[userID] = records
	f.history[userID] = history
	return nil
}

func (f *fakeStore) CommitRecharge(ctx context.Context, userID string, user *models.User, history []models.ChargeRecord) error {
	if f.failCommit {
		return errors.New("commit failed")
	}
	f.users[userID] = user
	f.history[userID] = history
	return nil
}

func (f *fakeStore) CommitMileage(ctx context.Context, userID string, mileage *models.MileageLedger) error {
	if f.failCommit {
		return errors.New("commit failed")
	}
	f.mileage[userID] = mileage
	return nil
}
