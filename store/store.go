// Package store records generated cards in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Kind identifies which pipeline produced a card.
type Kind string

const (
	KindWeb   Kind = "web"
	KindImage Kind = "image"
	KindDeck  Kind = "deck"
	KindText  Kind = "text"
)

// Record is one rendered card.
type Record struct {
	ID        uuid.UUID `json:"id"`
	Subject   string    `json:"subject"`
	Source    string    `json:"source"`
	Kind      Kind      `json:"kind"`
	Index     int       `json:"index"`
	Path      string    `json:"path"`
	Text      string    `json:"text"`
	Truncated bool      `json:"truncated"`
	CreatedAt time.Time `json:"createdAt"`
}

// Query filters List results. Zero values match everything.
type Query struct {
	Subject string
	Kind    Kind
	Limit   int
}

// DefaultLimit caps List when Query.Limit is unset.
const DefaultLimit = 100

// Store is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and migrates the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL 允许 serve 运行时 history 命令并发读取
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// migrate 建表与索引，可重复执行。
func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS cards (
  id TEXT PRIMARY KEY,
  subject TEXT NOT NULL,
  source TEXT NOT NULL,
  kind TEXT NOT NULL,
  idx INTEGER NOT NULL,
  path TEXT NOT NULL,
  body TEXT NOT NULL,
  truncated INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cards_subject_created ON cards(subject COLLATE NOCASE, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_cards_kind_created ON cards(kind, created_at DESC);
`)
	return err
}

// Add inserts rec, assigning an ID and CreatedAt when they are zero.
func (s *Store) Add(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC() // 以 UTC 纳秒存储
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cards (id, subject, source, kind, idx, path, body, truncated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.Subject, rec.Source, string(rec.Kind), rec.Index, rec.Path, rec.Text,
		boolToInt(rec.Truncated), rec.CreatedAt.UnixNano())
	if err != nil {
		return Record{}, fmt.Errorf("insert card: %w", err)
	}
	return rec, nil
}

// List returns matching records, newest first.
func (s *Store) List(ctx context.Context, q Query) ([]Record, error) {
	query := `SELECT id, subject, source, kind, idx, path, body, truncated, created_at FROM cards`
	var (
		conds []string
		args  []any
	)
	if q.Subject != "" {
		conds = append(conds, "subject = ? COLLATE NOCASE")
		args = append(args, q.Subject)
	}
	if q.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(q.Kind))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	// 同一纳秒写入的记录按插入顺序倒排
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec       Record
			id, kind  string
			truncated int
			created   int64
		)
		if err := rows.Scan(&id, &rec.Subject, &rec.Source, &kind, &rec.Index, &rec.Path, &rec.Text, &truncated, &created); err != nil {
			return nil, err
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse card id %q: %w", id, err)
		}
		rec.Kind = Kind(kind)
		rec.Truncated = truncated != 0
		rec.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
