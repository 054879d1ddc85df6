package models

import "time"

// User represents an account. Password users carry a hash, identity provider
// users carry the provider subject; an account may have both.
type User struct {
	ID           uint      `gorm:"primaryKey"`
	Email        string    `gorm:"size:128;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:255"`
	GoogleSub    *string   `gorm:"size:64;uniqueIndex"`
	DisplayName  string    `gorm:"size:64"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	FailedLoginAttempts int        `gorm:"default:0"` // 連續登入失敗次數
	LockedUntil         *time.Time `gorm:"index"`     // 帳號鎖定到期時間
	LastLoginIP         string     `gorm:"size:64"`
	LastLoginAt         *time.Time
}
