package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"
)

// QRService issues short-lived recharge QR codes. The payload lives in
// Redis with a TTL; processing the code performs the recharge and burns it.
type QRService struct {
	redis  *redis.Client
	ledger *LedgerService
}

func NewQRService(rdb *redis.Client, ledger *LedgerService) *QRService {
	return &QRService{
		redis:  rdb,
		ledger: ledger,
	}
}

type rechargeQRPayload struct {
	UserID    string `json:"userId"`
	Amount    int64  `json:"amount"`
	Timestamp int64  `json:"timestamp"`
	Nonce     string `json:"nonce"`
}

// GenerateRechargeQR creates a recharge code valid for five minutes and
// returns the code plus a base64 PNG rendering.
func (s *QRService) GenerateRechargeQR(ctx context.Context, userID string, amount int64) (string, string, error) {
	payload := rechargeQRPayload{
		UserID:    userID,
		Amount:    amount,
		Timestamp: time.Now().Unix(),
		Nonce:     s.generateNonce(),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	code := base64.URLEncoding.EncodeToString(jsonData)

	key := fmt.Sprintf("recharge_qr:%s", code)
	if err := s.redis.Set(ctx, key, jsonData, 5*time.Minute).Err(); err != nil {
		return "", "", err
	}

	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", "", err
	}

	qrImage := base64.StdEncoding.EncodeToString(buf.Bytes())

	return code, qrImage, nil
}

// ProcessRechargeQR consumes a recharge code and credits the balance
// through the ledger. A code can only be used once.
func (s *QRService) ProcessRechargeQR(ctx context.Context, code string) (*RechargeResult, error) {
	key := fmt.Sprintf("recharge_qr:%s", code)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("invalid or expired QR code")
	}
	if err != nil {
		return nil, err
	}

	var payload rechargeQRPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}

	s.redis.Del(ctx, key)

	return s.ledger.Recharge(ctx, payload.UserID, payload.Amount, "QR 결제")
}

func (s *QRService) generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
