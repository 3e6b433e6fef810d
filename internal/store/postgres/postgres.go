package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/orma-app/orma/internal/model"
	"github.com/orma-app/orma/internal/store"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a native Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Marks() store.Marks { return &marks{db: s.db} }

// HealthPing implements health pinging for the Postgres-backed store.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Bootstrap creates the segni table if it does not exist. Kept idempotent
// so compose setups can run it on every start.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS segni (
            id               UUID PRIMARY KEY,
            text             TEXT NOT NULL,
            lat              DOUBLE PRECISION NOT NULL,
            lng              DOUBLE PRECISION NOT NULL,
            author_id        TEXT NOT NULL,
            author_label     TEXT NOT NULL DEFAULT '',
            author_photo_url TEXT NOT NULL DEFAULT '',
            created_at       TIMESTAMPTZ DEFAULT now(),
            created_at_local TIMESTAMPTZ NOT NULL
        );
        CREATE INDEX IF NOT EXISTS segni_created_at_idx ON segni (created_at DESC);
        CREATE INDEX IF NOT EXISTS segni_author_idx ON segni (author_id, created_at DESC);
    `)
	return err
}

type marks struct{ db *sql.DB }

func (m *marks) Append(ctx context.Context, in *model.MarkInput) (*model.Mark, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id := uuid.New().String()
	var created time.Time
	row := m.db.QueryRowContext(ctx, `
        INSERT INTO segni (id, text, lat, lng, author_id, author_label, author_photo_url, created_at_local)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at
    `, id, in.Text, in.Position.Lat, in.Position.Lng, in.AuthorID, in.AuthorLabel, in.AuthorPhotoURL, in.CreatedAtLocal.UTC())
	if err := row.Scan(&created); err != nil {
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
		CreatedAt:      &created,
		CreatedAtLocal: in.CreatedAtLocal,
	}, nil
}

func (m *marks) List(ctx context.Context, req model.ListMarksRequest) ([]*model.Mark, error) {
	query := `SELECT id, text, lat, lng, author_id, author_label, author_photo_url, created_at, created_at_local
              FROM segni WHERE 1=1`
	args := []interface{}{}
	n := 0
	if req.AuthorID != "" {
		n++
		query += fmt.Sprintf(" AND author_id=$%d", n)
		args = append(args, req.AuthorID)
	}
	if req.Since != nil {
		n++
		query += fmt.Sprintf(" AND COALESCE(created_at, created_at_local) >= $%d", n)
		args = append(args, req.Since.UTC())
	}
	switch req.OrderBy {
	case model.OrderByCreatedAtLocal:
		query += " ORDER BY created_at_local DESC"
	default:
		query += " ORDER BY created_at DESC NULLS LAST"
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
        FROM segni WHERE id=$1
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
