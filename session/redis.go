package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the Redis-backed [Store]. Flow records are stored as
// versioned binary blobs, tokens as JSON, each under its own key
// namespace so a flow Delete never touches a live token.
//
//	Performance: 1 Redis command per operation.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore creates a [RedisStore] backed by the given Redis client.
// prefix sets the Redis key namespace.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{
		redis:  client,
		prefix: prefix,
	}
}

func (s *RedisStore) flowKey(tenantID, flowID string) string {
	return s.prefix + ":flow:" + normalizeTenantID(tenantID) + ":" + flowID
}

func (s *RedisStore) tokenKey(tenantID, flowID string) string {
	return s.prefix + ":tok:" + normalizeTenantID(tenantID) + ":" + flowID
}

// Save persists a flow [Record] with the given TTL.
func (s *RedisStore) Save(ctx context.Context, rec *Record, ttl time.Duration) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.flowKey(rec.TenantID, rec.FlowID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get retrieves a flow record by tenant and flow ID. Expired records are
// deleted on read and reported as [ErrNotFound]; Redis TTL is the usual
// reaper, the stored expiry is the backstop.
func (s *RedisStore) Get(ctx context.Context, tenantID, flowID string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.flowKey(tenantID, flowID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	rec, err := Decode(data)
	if err != nil {
		return nil, err
	}

	if rec.ExpiresAt > 0 && time.Now().Unix() >= rec.ExpiresAt {
		if err := s.Delete(ctx, tenantID, flowID); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	return rec, nil
}

// Delete removes a flow record. Deleting a missing record is a no-op.
func (s *RedisStore) Delete(ctx context.Context, tenantID, flowID string) error {
	if err := s.redis.Del(ctx, s.flowKey(tenantID, flowID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// SaveToken persists an issued [TokenRecord]. A zero ttl stores the token
// without expiry; the gateway's own token lifetime then governs validity.
func (s *RedisStore) SaveToken(ctx context.Context, tenantID, flowID string, tok *TokenRecord, ttl time.Duration) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.tokenKey(tenantID, flowID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Token retrieves the issued token for a flow, or [ErrNotFound].
func (s *RedisStore) Token(ctx context.Context, tenantID, flowID string) (*TokenRecord, error) {
	data, err := s.redis.Get(ctx, s.tokenKey(tenantID, flowID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	tok := &TokenRecord{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, err
	}

	if tok.ExpiresAtUnix > 0 && time.Now().Unix() >= tok.ExpiresAtUnix {
		if err := s.DeleteToken(ctx, tenantID, flowID); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	return tok, nil
}

// DeleteToken removes an issued token. Idempotent.
func (s *RedisStore) DeleteToken(ctx context.Context, tenantID, flowID string) error {
	if err := s.redis.Del(ctx, s.tokenKey(tenantID, flowID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
