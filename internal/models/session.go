package models

import (
	"time"

	"gorm.io/gorm"
)

// Session represents one logged-in browser session. The token is the random
// part of the session cookie; the signed cookie value never reaches the
// database.
type Session struct {
	gorm.Model
	Token     string    `gorm:"uniqueIndex;not null"`
	Username  string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null"`
}
