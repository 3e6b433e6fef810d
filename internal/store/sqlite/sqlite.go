package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/orma-app/orma/internal/model"
	"github.com/orma-app/orma/internal/store"
)

// Open opens (or creates) a SQLite database at the given path and enables WAL
// journal mode. The URI parameters give better concurrency for read-heavy use.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		// ensure parent directory exists to avoid SQLITE_CANTOPEN errors
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// New opens the database at path, ensures the schema exists and returns the store.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB allows wiring with an existing connection (used by tests and the factory).
func NewWithDB(db *sql.DB) (store.Store, error) {
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS segni (
            id               TEXT PRIMARY KEY,
            text             TEXT NOT NULL,
            lat              REAL NOT NULL,
            lng              REAL NOT NULL,
            author_id        TEXT NOT NULL,
            author_label     TEXT NOT NULL DEFAULT '',
            author_photo_url TEXT NOT NULL DEFAULT '',
            created_at       TIMESTAMP,
            created_at_local TIMESTAMP NOT NULL
        );
        CREATE INDEX IF NOT EXISTS segni_created_at_idx ON segni (created_at DESC);
        CREATE INDEX IF NOT EXISTS segni_author_idx ON segni (author_id, created_at DESC);
    `)
	return err
}

type sqliteStore struct{ db *sql.DB }

// DB exposes the underlying *sql.DB connection (test fixtures use it to
// simulate rows whose created_at has not propagated).
func (s *sqliteStore) DB() *sql.DB { return s.db }

func (s *sqliteStore) Marks() store.Marks { return &marks{db: s.db} }

func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type marks struct{ db *sql.DB }

func (m *marks) Append(ctx context.Context, in *model.MarkInput) (*model.Mark, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := m.db.ExecContext(ctx, `
        INSERT INTO segni (id, text, lat, lng, author_id, author_label, author_photo_url, created_at, created_at_local)
        VALUES (?,?,?,?,?,?,?,?,?)
    `, id, in.Text, in.Position.Lat, in.Position.Lng, in.AuthorID, in.AuthorLabel, in.AuthorPhotoURL, now, in.CreatedAtLocal.UTC())
	if err != nil {
		return nil, err
	}
	pos := in.Position
	return &model.Mark{
		ID:             id,
		Text:           in.Text,
		Position:       &pos,
		AuthorID:       in.AuthorID,
		AuthorLabel:    in.AuthorLabel,
		AuthorPhotoURL: in.AuthorPhotoURL,
		CreatedAt:      &now,
		CreatedAtLocal: in.CreatedAtLocal,
	}, nil
}

func (m *marks) List(ctx context.Context, req model.ListMarksRequest) ([]*model.Mark, error) {
	query := `SELECT id, text, lat, lng, author_id, author_label, author_photo_url, created_at, created_at_local
              FROM segni WHERE 1=1`
	args := []interface{}{}
	if req.AuthorID != "" {
		query += " AND author_id = ?"
		args = append(args, req.AuthorID)
	}
	if req.Since != nil {
		query += " AND COALESCE(created_at, created_at_local) >= ?"
		args = append(args, req.Since.UTC())
	}
	switch req.OrderBy {
	case model.OrderByCreatedAtLocal:
		query += " ORDER BY created_at_local DESC"
	default:
		// NULL sorts lowest in SQLite, so DESC already puts missing
		// created_at rows last.
		query += " ORDER BY created_at DESC"
	}
	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", req.Limit)
	}
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.Mark
	for rows.Next() {
		mk, err := scanMark(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, mk)
	}
	return out, rows.Err()
}

func (m *marks) GetByID(ctx context.Context, id string) (*model.Mark, error) {
	row := m.db.QueryRowContext(ctx, `
        SELECT id, text, lat, lng, author_id, author_label, author_photo_url, created_at, created_at_local
        FROM segni WHERE id = ?
    `, id)
	mk, err := scanMark(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return mk, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMark(r rowScanner) (*model.Mark, error) {
	var mk model.Mark
	var pos model.Position
	var created sql.NullTime
	if err := r.Scan(&mk.ID, &mk.Text, &pos.Lat, &pos.Lng, &mk.AuthorID, &mk.AuthorLabel, &mk.AuthorPhotoURL, &created, &mk.CreatedAtLocal); err != nil {
		return nil, err
	}
	mk.Position = &pos
	if created.Valid {
		t := created.Time
		mk.CreatedAt = &t
	}
	return &mk, nil
}
