package audit

import (
	"encoding/json"
	"log"
	"time"
)

type AuditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	UserID    string    `json:"user_id"`
	TitleID   string    `json:"title_id,omitempty"`
	Amount    int64     `json:"amount"`
	Status    string    `json:"status"`
	Details   any       `json:"details,omitempty"`
}

// Logger emits structured audit lines for every ledger mutation.
type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (a *Logger) LogInvestment(userID, titleID string, amount int64, status string) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "INVESTMENT",
		UserID:    userID,
		TitleID:   titleID,
		Amount:    amount,
		Status:    status,
	})
}

func (a *Logger) LogCancellation(userID, titleID string, amount int64, status string) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "CANCELLATION",
		UserID:    userID,
		TitleID:   titleID,
		Amount:    amount,
		Status:    status,
	})
}

func (a *Logger) LogRecharge(userID string, amount, fee int64, status string) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "RECHARGE",
		UserID:    userID,
		Amount:    amount,
		Status:    status,
		Details:   map[string]int64{"fee": fee},
	})
}

func (a *Logger) LogError(userID, titleID string, err error) {
	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "ERROR",
		UserID:    userID,
		TitleID:   titleID,
		Status:    "FAILED",
		Details:   map[string]string{"error": err.Error()},
	})
}

func (a *Logger) log(event AuditEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[AUDIT] Failed to marshal event: %v", err)
		return
	}
	log.Printf("[AUDIT] %s", data)
}
