package store

import (
	"context"
	"errors"
	"fmt"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"time"
)

const foreignKeyViolation = "23503"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id  BIGINT PRIMARY KEY,
	username VARCHAR(32) NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS passwords (
	id         BIGSERIAL PRIMARY KEY,
	user_id    BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
	password   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS notes (
	id          BIGSERIAL PRIMARY KEY,
	user_id     BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
	password_id BIGINT NOT NULL REFERENCES passwords(id) ON DELETE CASCADE,
	content     VARCHAR(255) NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_passwords_user ON passwords(user_id, id DESC);
CREATE INDEX IF NOT EXISTS idx_notes_user ON notes(user_id, created_at DESC);
`

// Connect opens a pool and pings it, retrying while the database comes up.
func Connect(ctx context.Context, url string, retries int, interval time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	var lastErr error
	for i := 0; i <= retries; i++ {
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}

		lastErr = err
		log.Warn().Err(err).Msgf("database not ready, attempt %d of %d", i+1, retries+1)
		if i < retries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(interval):
			}
		}
	}

	return nil, fmt.Errorf("connect to database after %d retries: %w", retries, lastErr)
}

// PostgresStore persists users, password history and notes in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the schema if missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) RegisterUser(ctx context.Context, userID int64, username string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (user_id, username)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET username = EXCLUDED.username`,
		userID, username,
	)
	if err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, userID int64) (*User, error) {
	var u User
	err := s.pool.QueryRow(ctx, `SELECT user_id, username FROM users WHERE user_id = $1`, userID).
		Scan(&u.ID, &u.Username)
	if err != nil {
		return nil, notFound("get user", err)
	}
	return &u, nil
}

func (s *PostgresStore) SavePassword(ctx context.Context, userID int64, password string) (int64, error) {
	var id int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		// Keep room for the new entry.
		_, err := tx.Exec(ctx, `
			DELETE FROM passwords WHERE id IN (
				SELECT id FROM passwords WHERE user_id = $1 ORDER BY id DESC OFFSET $2
			)`, userID, HistoryLimit-1)
		if err != nil {
			return err
		}

		return tx.QueryRow(ctx,
			`INSERT INTO passwords (user_id, password) VALUES ($1, $2) RETURNING id`,
			userID, password,
		).Scan(&id)
	})
	if err != nil {
		return 0, notFound("save password", err)
	}
	return id, nil
}

func (s *PostgresStore) ListPasswords(ctx context.Context, userID int64, page, perPage int) ([]PasswordEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, password, created_at
		FROM passwords
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`,
		userID, perPage, offset(page, perPage),
	)
	if err != nil {
		return nil, fmt.Errorf("list passwords: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (PasswordEntry, error) {
		var p PasswordEntry
		err := row.Scan(&p.ID, &p.UserID, &p.Password, &p.CreatedAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("list passwords: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) CountPasswords(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM passwords WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count passwords: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) CountNotes(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notes WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) LastPasswordID(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM passwords WHERE user_id = $1 ORDER BY id DESC LIMIT 1`, userID).Scan(&id)
	if err != nil {
		return 0, notFound("last password", err)
	}
	return id, nil
}

func (s *PostgresStore) DeletePassword(ctx context.Context, userID, passwordID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM passwords WHERE id = $1 AND user_id = $2`, passwordID, userID)
	if err != nil {
		return fmt.Errorf("delete password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AddNote(ctx context.Context, userID, passwordID int64, content string) (*Note, error) {
	content, err := NormalizeNote(content)
	if err != nil {
		return nil, err
	}

	// The password has to belong to the same user.
	n, err := scanNote(s.pool.QueryRow(ctx, `
		INSERT INTO notes (user_id, password_id, content)
		SELECT $1, $2, $3
		WHERE EXISTS (SELECT 1 FROM passwords WHERE id = $2 AND user_id = $1)
		RETURNING id, user_id, password_id, content, created_at`,
		userID, passwordID, content,
	))
	if err != nil {
		return nil, notFound("add note", err)
	}
	return n, nil
}

func (s *PostgresStore) ListNotes(ctx context.Context, userID int64, page, perPage int) ([]Note, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, password_id, content, created_at
		FROM notes
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		userID, perPage, offset(page, perPage),
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	notes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Note, error) {
		n, err := scanNote(row)
		if err != nil {
			return Note{}, err
		}
		return *n, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

func (s *PostgresStore) GetNote(ctx context.Context, userID, noteID int64) (*Note, error) {
	n, err := scanNote(s.pool.QueryRow(ctx, `
		SELECT id, user_id, password_id, content, created_at
		FROM notes WHERE id = $1 AND user_id = $2`,
		noteID, userID,
	))
	if err != nil {
		return nil, notFound("get note", err)
	}
	return n, nil
}

func (s *PostgresStore) DeleteNote(ctx context.Context, userID, noteID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, noteID, userID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ClearAll(ctx context.Context, userID int64) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM notes WHERE user_id = $1`, userID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM passwords WHERE user_id = $1`, userID)
		return err
	})
	if err != nil {
		return fmt.Errorf("clear all: %w", err)
	}

	log.Info().Int64("user_id", userID).Msg("user data cleared")
	return nil
}

func scanNote(row pgx.Row) (*Note, error) {
	var n Note
	if err := row.Scan(&n.ID, &n.UserID, &n.PasswordID, &n.Content, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// notFound maps missing rows and dangling references to ErrNotFound.
func notFound(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
