package models

import "time"

// Investment position statuses as rendered to the user.
const (
	InvestmentInProgress = "진행중"
	InvestmentCompleted  = "완료"
)

// InvestmentRecord is a user's accumulated position in one title.
// At most one record exists per (user, title) pair; repeat investment
// adds to Amount rather than duplicating the record.
type InvestmentRecord struct {
	ID          string    `json:"id"`
	TitleID     string    `json:"titleId" example:"wt-001"`
	Title       string    `json:"title" example:"달빛조각사"` // denormalized from catalog
	Thumbnail   string    `json:"thumbnail"`
	Amount      int64     `json:"amount" example:"50000"`
	Date        time.Time `json:"date"` // mandatory; set at creation, refreshed on top-up
	ExpectedROI float64   `json:"expectedROI"`
	Status      string    `json:"status" example:"진행중"`
}
