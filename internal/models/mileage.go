package models

import "time"

// Mileage entry types.
const (
	MileageEarned = "earned"
	MileageUsed   = "used"
)

// MileageEntry is one signed movement in the mileage history.
type MileageEntry struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Amount      int64     `json:"amount"`
	Type        string    `json:"type" example:"earned"` // earned or used
	Description string    `json:"description"`
	Source      string    `json:"source" example:"investment"` // investment, attendance, exchange
}

// ExchangedItem records a reward redemption with delivery contact info.
type ExchangedItem struct {
	ID       string    `json:"id"`
	RewardID string    `json:"rewardId"`
	Name     string    `json:"name"`
	Cost     int64     `json:"cost"`
	Date     time.Time `json:"date"`
	Contact  string    `json:"contact"`
}

// MileageLedger is the userMileage document. TotalMileage is kept equal to
// the signed sum of History; both are always written in the same commit.
type MileageLedger struct {
	TotalMileage       int64           `json:"totalMileage"`
	History            []MileageEntry  `json:"history"`
	LastAttendanceDate string          `json:"lastAttendanceDate,omitempty"` // YYYY-MM-DD
	AttendanceStreak   int             `json:"attendanceStreak,omitempty"`
	ExchangedItems     []ExchangedItem `json:"exchangedItems,omitempty"`
}
