package models

import "time"

// Token records an issued bearer token. ID is the token's jti claim; the row
// existing is what keeps the token valid.
type Token struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `gorm:"type:varchar(36);not null;index"`
	IssuedAt  time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
}
