package database

import (
	"path/filepath"
	"testing"

	"github.com/ting434252/lifebill/internal/config"
	"github.com/ting434252/lifebill/internal/models"
)

func TestInitAndMigrate_Memory(t *testing.T) {
	db, err := Init(config.DatabaseConfig{Path: MemoryPath})
	if err != nil {
		t.Fatalf("Init error = %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate error = %v", err)
	}
	for _, m := range []any{&models.User{}, &models.Session{}, &models.KVEntry{}, &models.AuditLog{}, &models.Backup{}} {
		if !db.Migrator().HasTable(m) {
			t.Errorf("table for %T missing", m)
		}
	}
}

func TestInit_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lifebill.db")
	db, err := Init(config.DatabaseConfig{Path: path})
	if err != nil {
		t.Fatalf("Init error = %v", err)
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()
	if err := sqlDB.Ping(); err != nil {
		t.Errorf("ping: %v", err)
	}
}
