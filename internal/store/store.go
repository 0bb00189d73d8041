package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/toonvest/backend/internal/models"
)

// ErrNotFound is returned when a document does not exist in the store.
var ErrNotFound = errors.New("document not found")

// Store is the typed repository over the string-keyed JSON document store.
// All key construction lives here; callers never see raw keys. Ledger
// mutations go through the Commit* methods, which write every affected
// document in a single MULTI/EXEC pipeline so a crash between writes cannot
// leave the ledger half-applied.
type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func userKey(userID string) string {
	return "currentUser:" + userID
}

func investmentsKey(userID string) string {
	return "userInvestments:" + userID
}

func progressKey(titleID string) string {
	return fmt.Sprintf("webtoon_progress_%s", titleID)
}

func mileageKey(userID string) string {
	return "userMileage:" + userID
}

func chargeHistoryKey(userID string) string {
	return "chargeHistory:" + userID
}

func paymentMethodsKey(userID string) string {
	return "paymentMethods:" + userID
}

func (s *Store) getJSON(ctx context.Context, key string, out any) error {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (s *Store) setJSON(ctx context.Context, key string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, data, 0).Err()
}

// GetUser reads the currentUser document.
func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.getJSON(ctx, userKey(userID), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SetUser overwrites the currentUser document. Intended for account
// creation and profile updates only; balance mutations go through the
// ledger commits below.
func (s *Store) SetUser(ctx context.Context, userID string, user *models.User) error {
	return s.setJSON(ctx, userKey(userID), user)
}

// GetProgress reads a title's funding overlay. ErrNotFound means no
// investment has touched the title yet and the catalog base values apply.
func (s *Store) GetProgress(ctx context.Context, titleID string) (*models.ProgressRecord, error) {
	var progress models.ProgressRecord
	if err := s.getJSON(ctx, progressKey(titleID), &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

// GetInvestments reads the user's investment records. A missing document
// is an empty position list, not an error.
func (s *Store) GetInvestments(ctx context.Context, userID string) ([]models.InvestmentRecord, error) {
	var records []models.InvestmentRecord
	err := s.getJSON(ctx, investmentsKey(userID), &records)
	if err == ErrNotFound {
		return []models.InvestmentRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

// GetMileage reads the userMileage document, defaulting to a zeroed ledger
// when none exists yet.
func (s *Store) GetMileage(ctx context.Context, userID string) (*models.MileageLedger, error) {
	var ledger models.MileageLedger
	err := s.getJSON(ctx, mileageKey(userID), &ledger)
	if err == ErrNotFound {
		return &models.MileageLedger{History: []models.MileageEntry{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}

// GetChargeHistory reads the charge/refund history, newest first.
func (s *Store) GetChargeHistory(ctx context.Context, userID string) ([]models.ChargeRecord, error) {
	var history []models.ChargeRecord
	err := s.getJSON(ctx, chargeHistoryKey(userID), &history)
	if err == ErrNotFound {
		return []models.ChargeRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	return history, nil
}

// SetChargeHistory overwrites the charge history. Used by the settlement
// job when flipping pending refunds to completed.
func (s *Store) SetChargeHistory(ctx context.Context, userID string, history []models.ChargeRecord) error {
	return s.setJSON(ctx, chargeHistoryKey(userID), history)
}

// GetPaymentMethods reads the registered payment methods.
func (s *Store) GetPaymentMethods(ctx context.Context, userID string) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := s.getJSON(ctx, paymentMethodsKey(userID), &methods)
	if err == ErrNotFound {
		return []models.PaymentMethod{}, nil
	}
	if err != nil {
		return nil, err
	}
	return methods, nil
}

// SetPaymentMethods overwrites the registered payment methods.
func (s *Store) SetPaymentMethods(ctx context.Context, userID string, methods []models.PaymentMethod) error {
	return s.setJSON(ctx, paymentMethodsKey(userID), methods)
}

// ChargeHistoryUserIDs scans the store for every user with a charge
// history. Used by the refund settlement job.
func (s *Store) ChargeHistoryUserIDs(ctx context.Context) ([]string, error) {
	var userIDs []string
	iter := s.rdb.Scan(ctx, 0, chargeHistoryKey("*"), 100).Iterator()
	prefixLen := len(chargeHistoryKey(""))
	for iter.Next(ctx) {
		userIDs = append(userIDs, iter.Val()[prefixLen:])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return userIDs, nil
}

// CommitInvestment writes the four documents touched by one investment
// (balance, title progress, investment list, mileage) atomically.
func (s *Store) CommitInvestment(ctx context.Context, userID string, user *models.User, titleID string, progress *models.ProgressRecord, records []models.InvestmentRecord, mileage *models.MileageLedger) error {
	return s.commit(ctx, map[string]any{
		userKey(userID):        user,
		progressKey(titleID):   progress,
		investmentsKey(userID): records,
		mileageKey(userID):     mileage,
	})
}

// CommitCancellation writes the reversal of one investment (balance,
// title progress, investment list, refund history entry) atomically.
func (s *Store) CommitCancellation(ctx context.Context, userID string, user *models.User, titleID string, progress *models.ProgressRecord, records []models.InvestmentRecord, history []models.ChargeRecord) error {
	return s.commit(ctx, map[string]any{
		userKey(userID):          user,
		progressKey(titleID):     progress,
		investmentsKey(userID):   records,
		chargeHistoryKey(userID): history,
	})
}

// CommitRecharge writes a balance credit and its charge record atomically.
func (s *Store) CommitRecharge(ctx context.Context, userID string, user *models.User, history []models.ChargeRecord) error {
	return s.commit(ctx, map[string]any{
		userKey(userID):          user,
		chargeHistoryKey(userID): history,
	})
}

// CommitMileage writes the userMileage document (check-in, redemption).
func (s *Store) CommitMileage(ctx context.Context, userID string, mileage *models.MileageLedger) error {
	return s.setJSON(ctx, mileageKey(userID), mileage)
}

func (s *Store) commit(ctx context.Context, docs map[string]any) error {
	payloads := make(map[string][]byte, len(docs))
	for key, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		payloads[key] = data
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, data := range payloads {
			pipe.Set(ctx, key, data, 0)
		}
		return nil
	})
	return err
}
