package models

import "time"

// AuditLog records mutating API calls. Owner is "device:<id>" or "user:<id>".
type AuditLog struct {
	ID        uint   `gorm:"primaryKey"`
	Owner     string `gorm:"size:96;index;not null"`
	Method    string `gorm:"size:16"`
	Path      string `gorm:"size:255"`
	ActionEnc string `gorm:"size:2048"` // 加密後的動作描述
	Status    int
	IP        string `gorm:"size:64"`
	UserAgent string `gorm:"size:255"`
	CreatedAt time.Time
}
