package models

import "time"

// Title is a static catalog entry for an investable webtoon.
type Title struct {
	ID            string  `json:"id" example:"wt-001"`
	Title         string  `json:"title" example:"달빛조각사"`
	Category      string  `json:"category" example:"판타지"`
	Thumbnail     string  `json:"thumbnail"`
	ExpectedROI   float64 `json:"expectedROI" example:"12.5"` // percent
	GoalAmount    int64   `json:"goalAmount" example:"500000000"`
	BaseRaised    int64   `json:"baseRaised"`    // raised amount before any ledger activity
	BaseInvestors int     `json:"baseInvestors"` // investor count before any ledger activity
	Description   string  `json:"description,omitempty"`
}

// ProgressRecord is the mutable funding overlay for one title, stored as
// webtoon_progress_<titleId>. Absent record means the title's base values.
type ProgressRecord struct {
	CurrentRaised  int64     `json:"currentRaised"`
	TotalInvestors int       `json:"totalInvestors"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// ProgressPercent derives the funding percentage against a goal, clamped
// to [0,100] for display. The stored raised amount itself is never clamped.
func (p *ProgressRecord) ProgressPercent(goalAmount int64) float64 {
	if goalAmount <= 0 {
		return 0
	}
	pct := float64(p.CurrentRaised) / float64(goalAmount) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
