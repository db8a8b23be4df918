package models

import (
	"fmt"
	"time"
)

// User is a ledger participant. IDs are supplied by callers, not generated.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username  string    `gorm:"not null" json:"username"`
	Email     string    `gorm:"not null" json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// PlaceholderUser builds the deterministic profile used when a participant is first seen.
func PlaceholderUser(id int64) User {
	return User{
		ID:       id,
		Username: fmt.Sprintf("User%d", id),
		Email:    fmt.Sprintf("user%d@example.com", id),
	}
}
