package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-portfolio-backend/internal/repo"
)

// DefaultIdempotencyTTL is how long a remembered create result is replayed.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyService remembers which resource a create request produced for
// a given (scope, key) so retries can be answered with the same resource.
type IdempotencyService struct {
	DB  *gorm.DB
	TTL time.Duration
	Now func() time.Time
}

// NewIdempotencyService constructs an IdempotencyService. A non-positive ttl
// falls back to DefaultIdempotencyTTL.
func NewIdempotencyService(db *gorm.DB, ttl time.Duration) *IdempotencyService {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyService{DB: db, TTL: ttl}
}

// Lookup returns the resource id remembered for (scope, key). ok is false
// when no live record exists.
func (s *IdempotencyService) Lookup(ctx context.Context, scope, key string) (resourceID string, ok bool, err error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, scope, key, clock(s.Now))
	if errors.Is(err, repo.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.ResourceID, true, nil
}

// Exists reports whether a live record exists at now. Its signature matches
// middleware.IdempotencyLookup.
func (s *IdempotencyService) Exists(ctx context.Context, scope, key string, now time.Time) (bool, error) {
	_, err := repo.GetIdempotency(ctx, s.DB, scope, key, now.UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Remember records resourceID for (scope, key). An expired record for the
// same key is purged first. A concurrent winner is not an error.
func (s *IdempotencyService) Remember(ctx context.Context, scope, key, resourceID string, status int) error {
	now := clock(s.Now)
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	if err := repo.PurgeExpiredIdempotency(ctx, s.DB, scope, key, now); err != nil {
		return err
	}
	_, err := repo.CreateIdempotency(ctx, s.DB, scope, key, resourceID, status, now, ttl)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil
	}
	return err
}
