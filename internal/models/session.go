package models

import "time"

// Session is an issued login token. Logout revokes it.
type Session struct {
	ID        string    `gorm:"primaryKey;size:64"` // token jti (UUID)
	UserID    uint      `gorm:"index;not null"`
	DeviceID  string    `gorm:"size:64;index"`
	ExpiresAt time.Time `gorm:"index;not null"`
	Revoked   bool      `gorm:"index;not null"`
	CreatedAt time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}
