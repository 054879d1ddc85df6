package kv

import (
	"context"
	"errors"
	"os"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ting434252/lifebill/internal/models"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "dev1", "life_journal_2024"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing error = %v, want ErrNotFound", err)
	}
	if err := s.Set(ctx, "dev1", "life_journal_2024", `[]`); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	if err := s.Set(ctx, "dev1", "life_journal_2024", `[{"id":"1"}]`); err != nil {
		t.Fatalf("Set overwrite error = %v", err)
	}
	got, err := s.Get(ctx, "dev1", "life_journal_2024")
	if err != nil || got != `[{"id":"1"}]` {
		t.Errorf("Get = %q, %v", got, err)
	}

	// 不同 namespace 互不影響
	if _, err := s.Get(ctx, "dev2", "life_journal_2024"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get other namespace error = %v, want ErrNotFound", err)
	}

	if err := s.Delete(ctx, "dev1", "life_journal_2024"); err != nil {
		t.Fatalf("Delete error = %v", err)
	}
	if _, err := s.Get(ctx, "dev1", "life_journal_2024"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "dev1", "never-set"); err != nil {
		t.Errorf("Delete missing error = %v, want nil", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestGormStore(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1) // 每條連線各自一個 :memory: 資料庫
	if err := db.AutoMigrate(&models.KVEntry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	exerciseStore(t, NewGormStore(db))
}

// 需要本機 redis：LIFEBILL_TEST_REDIS=localhost:6379
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("LIFEBILL_TEST_REDIS")
	if addr == "" {
		t.Skip("LIFEBILL_TEST_REDIS not set")
	}
	s, err := NewRedisStore(context.Background(), RedisOptions{Addr: addr, Prefix: "lifebill-test"})
	if err != nil {
		t.Fatalf("NewRedisStore error = %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestRedisKey(t *testing.T) {
	s := NewRedisStoreWithClient(nil, "")
	if got := s.key("dev1", "life_journal_players"); got != "lifebill:kv:dev1:life_journal_players" {
		t.Errorf("key = %q", got)
	}
}
