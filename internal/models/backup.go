package models

import "time"

// Backup is an encrypted dataset snapshot stored in the backup directory.
type Backup struct {
	ID        uint   `gorm:"primaryKey"`
	Owner     string `gorm:"size:96;index;not null"`
	Year      int    `gorm:"index"`
	FileName  string `gorm:"size:128;not null"`
	FilePath  string `gorm:"size:512;not null"`
	Size      int64
	Records   int
	CreatedAt time.Time
}
