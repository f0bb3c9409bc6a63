// Package continuation issues and redeems the single-use tokens that let a
// client book a pre-agreed follow-up visit. A token chain is sequential: each
// successful follow-up consumes the current token and, while visits remain,
// issues the next one.
package continuation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrTokenNotFound is returned when no token row matches.
	ErrTokenNotFound = errors.New("continuation: token not found")
	// ErrTokenExpired is returned when the token outlived its expiry.
	ErrTokenExpired = errors.New("continuation: token expired")
	// ErrTokenConsumed is returned when the token was already redeemed.
	ErrTokenConsumed = errors.New("continuation: token already consumed")
)

// Token is a single-use credential for one follow-up visit. RemainingVisits
// counts the visits still owed on the chain including the one this token
// books; it is always at least one while a token exists.
type Token struct {
	ID              uuid.UUID  `json:"id"`
	Token           string     `json:"token"`
	ChainID         uuid.UUID  `json:"chain_id"`
	OriginBookingID uuid.UUID  `json:"origin_booking_id"`
	RepeatTypeID    uuid.UUID  `json:"repeat_type_id"`
	RemainingVisits int        `json:"remaining_visits"`
	ExpiresAt       time.Time  `json:"expires_at"`
	Consumed        bool       `json:"consumed"`
	ConsumedAt      *time.Time `json:"consumed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (t Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
