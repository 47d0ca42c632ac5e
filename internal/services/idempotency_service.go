// Package services – IdempotencyService
//
// IdempotencyService records the resource produced by an idempotent POST so a
// retry with the same (user, scope, key) replays it instead of creating a
// second one.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/skillswap-backend/internal/domain"
	"github.com/tbourn/skillswap-backend/internal/repo"
)

// ScopeCreateRequest is the idempotency scope of connection request creation.
const ScopeCreateRequest = "requests.create"

// IdempotencyService stores and replays idempotent results.
type IdempotencyService struct {
	DB  *gorm.DB
	TTL time.Duration
}

// NewIdempotencyService constructs an IdempotencyService. ttl <= 0 defaults
// to 24h.
func NewIdempotencyService(db *gorm.DB, ttl time.Duration) *IdempotencyService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyService{DB: db, TTL: ttl}
}

// Lookup returns the live record for the tuple, or nil when none exists.
func (s *IdempotencyService) Lookup(ctx context.Context, userID, scope, key string) (*domain.Idempotency, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, scope, key, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("idempotency.lookup", err)
	}
	return rec, nil
}

// Exists adapts Lookup to middleware.IdempotencyLookup.
func (s *IdempotencyService) Exists(ctx context.Context, userID, scope, key string, _ time.Time) (bool, error) {
	rec, err := s.Lookup(ctx, userID, scope, key)
	return rec != nil, err
}

// Record stores the outcome. A concurrent retry that already recorded the
// tuple is not an error.
func (s *IdempotencyService) Record(ctx context.Context, userID, scope, key, resourceID string, status int) error {
	_, err := repo.CreateIdempotency(ctx, s.DB, userID, scope, key, resourceID, status, s.TTL)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return storageErr("idempotency.record", err)
}
