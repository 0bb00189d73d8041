package models

import "time"

// User is the currentUser document stored in the key-value store.
// Balance is in integer Korean won and is mutated only by the ledger
// (invest/cancel) and the recharge flow.
type User struct {
	Email        string `json:"email" example:"user@example.com"` // User email
	Name         string `json:"name" example:"홍길동"`               // Display name
	Balance      int64  `json:"balance" example:"1000000"`        // Cash balance, won
	ProfileImage string `json:"profileImage,omitempty"`
	Theme        string `json:"theme,omitempty"`
}

// UserRecord is the Postgres-side account row behind the auth service.
type UserRecord struct {
	ID        int       `json:"id" example:"1"`
	Email     string    `json:"email" example:"user@example.com"`
	Name      string    `json:"name" example:"홍길동"`
	CreatedAt time.Time `json:"created_at"`
}
