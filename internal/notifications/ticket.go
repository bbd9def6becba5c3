package notifications

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	ticketKeyPrefix = "ws_ticket:"
	// DefaultTicketTTL bounds how long a ticket waits to be redeemed.
	DefaultTicketTTL = 30 * time.Second
)

// ErrInvalidTicket is returned for unknown, expired or reused tickets.
var ErrInvalidTicket = errors.New("invalid or expired websocket ticket")

// TicketStore issues single-use tickets that authenticate the websocket
// upgrade, where browsers cannot send an Authorization header.
type TicketStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTicketStore returns a store backed by rdb.
func NewTicketStore(rdb *redis.Client, ttl time.Duration) *TicketStore {
	if ttl <= 0 {
		ttl = DefaultTicketTTL
	}
	return &TicketStore{rdb: rdb, ttl: ttl}
}

// Issue creates a ticket for accountID.
func (s *TicketStore) Issue(ctx context.Context, accountID uint) (string, time.Duration, error) {
	if s.rdb == nil {
		return "", 0, errors.New("ticket store unavailable")
	}
	ticket := uuid.NewString()
	if err := s.rdb.Set(ctx, ticketKeyPrefix+ticket, accountID, s.ttl).Err(); err != nil {
		return "", 0, err
	}
	return ticket, s.ttl, nil
}

// Redeem consumes a ticket atomically and returns its account.
func (s *TicketStore) Redeem(ctx context.Context, ticket string) (uint, error) {
	if s.rdb == nil || ticket == "" {
		return 0, ErrInvalidTicket
	}
	raw, err := s.rdb.GetDel(ctx, ticketKeyPrefix+ticket).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrInvalidTicket
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidTicket
	}
	return uint(id), nil
}
