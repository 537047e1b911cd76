package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no flow record or token exists for the key.
var ErrNotFound = errors.New("session not found")

// ErrRedisUnavailable is an exported constant or variable used by the flow engine.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Store is the persistence contract for flow records and issued tokens.
// Implementations must be safe for concurrent use.
//
// Get and Token return [ErrNotFound] for missing or expired entries; the
// flow engine translates that into a fresh flow rather than an error
// surfaced to the user.
type Store interface {
	Save(ctx context.Context, rec *Record, ttl time.Duration) error
	Get(ctx context.Context, tenantID, flowID string) (*Record, error)
	Delete(ctx context.Context, tenantID, flowID string) error

	SaveToken(ctx context.Context, tenantID, flowID string, tok *TokenRecord, ttl time.Duration) error
	Token(ctx context.Context, tenantID, flowID string) (*TokenRecord, error)
	DeleteToken(ctx context.Context, tenantID, flowID string) error
}

func normalizeTenantID(tenantID string) string {
	if tenantID == "" {
		return "0"
	}
	return tenantID
}
