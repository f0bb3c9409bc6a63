package continuation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const tokenColumns = `id, token, chain_id, origin_booking_id, repeat_type_id, remaining_visits, expires_at, consumed, consumed_at, created_at`

// Store persists continuation tokens.
type Store struct {
	db DB
}

// NewStore creates a new continuation token store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Create inserts a new token row.
func (s *Store) Create(ctx context.Context, t *Token) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO continuation_tokens (`+tokenColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.Token, t.ChainID, t.OriginBookingID, t.RepeatTypeID,
		t.RemainingVisits, t.ExpiresAt, t.Consumed, t.ConsumedAt, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("continuation: create token: %w", err)
	}
	return nil
}

// GetByToken loads a token row by its opaque token string.
func (s *Store) GetByToken(ctx context.Context, token string) (*Token, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+tokenColumns+`
		FROM continuation_tokens
		WHERE token = $1`, token)

	var t Token
	err := row.Scan(
		&t.ID, &t.Token, &t.ChainID, &t.OriginBookingID, &t.RepeatTypeID,
		&t.RemainingVisits, &t.ExpiresAt, &t.Consumed, &t.ConsumedAt, &t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("continuation: get token: %w", err)
	}
	return &t, nil
}

// Consume marks the token consumed. The conditional update serializes
// concurrent redemptions: only one caller sees a row change, every other
// caller gets false.
func (s *Store) Consume(ctx context.Context, token string, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE continuation_tokens
		SET consumed = true, consumed_at = $1
		WHERE token = $2 AND consumed = false`, at, token)
	if err != nil {
		return false, fmt.Errorf("continuation: consume token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
