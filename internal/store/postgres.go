package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glamlens/stylist/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS style_sessions (
	session_id  TEXT PRIMARY KEY,
	user_id     TEXT,
	saved       BOOLEAN NOT NULL DEFAULT false,
	viewed_at   TIMESTAMPTZ,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	doc         JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS style_sessions_user_created_idx ON style_sessions (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS style_sessions_user_saved_idx ON style_sessions (user_id, saved, viewed_at DESC);

CREATE TABLE IF NOT EXISTS users (
	id          TEXT PRIMARY KEY,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	doc         JSONB NOT NULL
);
`

// PostgresStore keeps each document as JSONB next to the columns the
// listings filter and sort on.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps a pool and creates the tables when missing.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func nullableUserID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func (s *PostgresStore) CreateSession(ctx context.Context, session *models.StyleSession) error {
	doc, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO style_sessions (session_id, user_id, saved, viewed_at, created_at, updated_at, doc)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		session.SessionID, nullableUserID(session.UserID), session.UserInteraction.Saved,
		session.UserInteraction.Viewed, session.CreatedAt, session.UpdatedAt, doc)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSession(ctx context.Context, sessionID, userID string) (*models.StyleSession, error) {
	query := `SELECT doc FROM style_sessions WHERE session_id = $1`
	args := []any{sessionID}
	if userID != "" {
		query += ` AND user_id = $2`
		args = append(args, userID)
	}

	var doc []byte
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	var session models.StyleSession
	if err := json.Unmarshal(doc, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &session, nil
}

func (s *PostgresStore) SaveSession(ctx context.Context, session *models.StyleSession) error {
	doc, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE style_sessions
		SET saved = $2, viewed_at = $3, updated_at = $4, doc = $5
		WHERE session_id = $1`,
		session.SessionID, session.UserInteraction.Saved, session.UserInteraction.Viewed, session.UpdatedAt, doc)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListSessions(ctx context.Context, filter SessionFilter, skip, limit int) ([]models.StyleSession, int64, error) {
	where := `WHERE ($1 = '' OR user_id = $1) AND (NOT $2 OR saved) AND ($3 = '' OR doc->'recommendations' ? $3)`
	args := []any{filter.UserID, filter.SavedOnly, string(filter.Category)}

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM style_sessions `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	order := `created_at DESC`
	if filter.SavedOnly {
		order = `viewed_at DESC NULLS LAST`
	}
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT doc FROM style_sessions `+where+` ORDER BY `+order+` OFFSET $4 LIMIT $5`,
		append(args, skip, limitArg)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query sessions: %w", err)
	}

	sessions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.StyleSession, error) {
		var doc []byte
		var session models.StyleSession
		if err := row.Scan(&doc); err != nil {
			return session, err
		}
		err := json.Unmarshal(doc, &session)
		return session, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode sessions: %w", err)
	}
	if sessions == nil {
		sessions = []models.StyleSession{}
	}
	return sessions, total, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	var doc []byte
	if err := s.pool.QueryRow(ctx, `SELECT doc FROM users WHERE id = $1`, id).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	var u models.User
	if err := json.Unmarshal(doc, &u); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) SaveUser(ctx context.Context, u *models.User) error {
	doc, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (id, created_at, updated_at, doc) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET updated_at = EXCLUDED.updated_at, doc = EXCLUDED.doc`,
		u.ID, u.CreatedAt, u.UpdatedAt, doc)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *PostgresStore) IncrementUsage(ctx context.Context, id string, at time.Time) error {
	fresh := NewUser(id, at)
	fresh.Usage.AnalysesThisMonth = 1
	doc, err := json.Marshal(fresh)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO users (id, created_at, updated_at, doc) VALUES ($1, $2, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			updated_at = EXCLUDED.updated_at,
			doc = jsonb_set(users.doc, '{usage,analysesThisMonth}',
				to_jsonb(COALESCE((users.doc->'usage'->>'analysesThisMonth')::int, 0) + 1), true)`,
		id, at, doc)
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

func (s *PostgresStore) ResetMonthlyUsage(ctx context.Context, at time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET
			updated_at = $1,
			doc = jsonb_set(jsonb_set(doc, '{usage,analysesThisMonth}', '0', true),
				'{usage,lastResetDate}', to_jsonb($2::text), true)`,
		at, at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("failed to reset usage: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}
