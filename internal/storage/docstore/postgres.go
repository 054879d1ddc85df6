package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const notifyChannel = "journal_documents"

// PostgresStore keeps documents as JSONB rows. Merge relies on the jsonb ||
// operator; changes are observed through LISTEN/NOTIFY fired by a trigger.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects a pool and pings it.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgx ping: %w", err)
	}
	return NewPostgresStore(pool), nil
}

func (s *PostgresStore) Get(ctx context.Context, path string) (Snapshot, error) {
	var (
		raw       []byte
		updatedAt time.Time
	)
	err := s.db.QueryRow(ctx,
		"SELECT doc, updated_at FROM journal_documents WHERE path = $1", path,
	).Scan(&raw, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{Path: path}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("get document %s: %w", path, err)
	}

	var fields Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Snapshot{}, fmt.Errorf("decode document %s: %w", path, err)
	}
	return Snapshot{Path: path, Exists: true, Fields: fields, UpdatedAt: updatedAt}, nil
}

func (s *PostgresStore) Merge(ctx context.Context, path string, fields Fields) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", path, err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO journal_documents (path, doc, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (path) DO UPDATE
		SET doc = journal_documents.doc || EXCLUDED.doc, updated_at = now()
	`, path, string(raw))
	if err != nil {
		return fmt.Errorf("merge document %s: %w", path, err)
	}
	return nil
}

// Subscribe holds one pooled connection in LISTEN mode for as long as ctx
// lives.
func (s *PostgresStore) Subscribe(ctx context.Context, path string) (<-chan Snapshot, error) {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen conn: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen: %w", err)
	}
	first, err := s.Get(ctx, path)
	if err != nil {
		s.release(conn)
		return nil, err
	}

	ch := make(chan Snapshot, subscriptionBuffer)
	ch <- first
	go func() {
		defer close(ch)
		defer s.release(conn)
		fail := func(err error) {
			select {
			case ch <- Snapshot{Path: path, Err: err}:
			case <-ctx.Done():
			}
		}
		for {
			n, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					fail(fmt.Errorf("wait notification: %w", err))
				}
				return
			}
			if n.Payload != path {
				continue
			}
			snap, err := s.Get(ctx, path)
			if err != nil {
				if ctx.Err() == nil {
					fail(err)
				}
				return
			}
			if offer(ch, snap) {
				slog.Debug("docstore subscriber is behind, older snapshot replaced", "path", path)
			}
		}
	}()
	return ch, nil
}

// release returns a listening connection to the pool without its LISTEN.
func (s *PostgresStore) release(conn *pgxpool.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := conn.Exec(ctx, "UNLISTEN *"); err != nil {
		// 連線狀態不明，直接關閉
		_ = conn.Conn().Close(ctx)
	}
	conn.Release()
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
