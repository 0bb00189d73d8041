package models

import "time"

// Charge record types and statuses.
const (
	ChargeTypeCharge     = "charge"
	ChargeTypeRefund     = "refund"
	ChargeTypeInvestment = "investment"

	ChargeStatusCompleted = "completed"
	ChargeStatusPending   = "pending"
	ChargeStatusFailed    = "failed"
)

// ChargeRecord is one entry in the chargeHistory document. The list is
// append-only, newest first.
type ChargeRecord struct {
	ID      string    `json:"id"`
	Amount  int64     `json:"amount" example:"50000"`
	Method  string    `json:"method" example:"카드"` // method/source label
	Status  string    `json:"status" example:"completed"`
	Date    time.Time `json:"date"`
	Fee     int64     `json:"fee"`
	Type    string    `json:"type" example:"charge"` // charge, refund or investment
	TitleID string    `json:"titleId,omitempty"`     // set for refund entries
}

// PaymentMethod is one entry in the paymentMethods document.
type PaymentMethod struct {
	ID        string `json:"id"`
	Type      string `json:"type" example:"card"`
	Name      string `json:"name" example:"신한카드"`
	Number    string `json:"number" example:"**** **** **** 1234"`
	IsDefault bool   `json:"isDefault"`
}
