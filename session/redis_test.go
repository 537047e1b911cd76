package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func TestRedisStoreSaveGetDelete(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewRedisStore(rdb, "pf")
	ctx := context.Background()

	rec := sampleRecord()
	rec.ExpiresAt = time.Now().Add(time.Hour).Unix()

	if err := store.Save(ctx, rec, 30*time.Minute); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, rec.TenantID, rec.FlowID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Email != rec.Email || got.Step != rec.Step || got.LastOTPRequestUnix != rec.LastOTPRequestUnix {
		t.Fatalf("Get mismatch: %+v", got)
	}

	if err := store.Delete(ctx, rec.TenantID, rec.FlowID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, rec.TenantID, rec.FlowID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again is a no-op.
	if err := store.Delete(ctx, rec.TenantID, rec.FlowID); err != nil {
		t.Fatalf("repeat Delete failed: %v", err)
	}
}

func TestRedisStoreMissingRecord(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewRedisStore(rdb, "pf")

	if _, err := store.Get(context.Background(), "0", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisStoreTTLExpiry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewRedisStore(rdb, "pf")
	ctx := context.Background()

	rec := sampleRecord()
	rec.ExpiresAt = time.Now().Add(time.Hour).Unix()

	if err := store.Save(ctx, rec, 10*time.Second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	mr.FastForward(11 * time.Second)

	if _, err := store.Get(ctx, rec.TenantID, rec.FlowID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after TTL, got %v", err)
	}
}

func TestRedisStoreStoredExpiryBackstop(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewRedisStore(rdb, "pf")
	ctx := context.Background()

	// Long Redis TTL but a stored expiry already in the past: the
	// backstop deletes on read.
	rec := sampleRecord()
	rec.ExpiresAt = time.Now().Add(-time.Minute).Unix()

	if err := store.Save(ctx, rec, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := store.Get(ctx, rec.TenantID, rec.FlowID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired record, got %v", err)
	}
}

func TestRedisStoreTenantIsolation(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewRedisStore(rdb, "pf")
	ctx := context.Background()

	rec := sampleRecord()
	rec.TenantID = "a"
	rec.ExpiresAt = time.Now().Add(time.Hour).Unix()

	if err := store.Save(ctx, rec, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := store.Get(ctx, "b", rec.FlowID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected tenant b to miss tenant a's record, got %v", err)
	}
}

func TestRedisStoreTokenLifecycle(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewRedisStore(rdb, "pf")
	ctx := context.Background()

	tok := &TokenRecord{
		Token:        "bearer-token",
		UserID:       "u1",
		Email:        "alice@example.com",
		IssuedAtUnix: time.Now().Unix(),
	}

	if err := store.SaveToken(ctx, "0", "flow-1", tok, 0); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	got, err := store.Token(ctx, "0", "flow-1")
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if got.Token != tok.Token || got.Email != tok.Email {
		t.Fatalf("Token mismatch: %+v", got)
	}

	if err := store.DeleteToken(ctx, "0", "flow-1"); err != nil {
		t.Fatalf("DeleteToken failed: %v", err)
	}
	if _, err := store.Token(ctx, "0", "flow-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after DeleteToken, got %v", err)
	}
}

func TestRedisStoreTokenExpiryBackstop(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewRedisStore(rdb, "pf")
	ctx := context.Background()

	tok := &TokenRecord{
		Token:         "bearer-token",
		IssuedAtUnix:  time.Now().Add(-2 * time.Hour).Unix(),
		ExpiresAtUnix: time.Now().Add(-time.Hour).Unix(),
	}

	if err := store.SaveToken(ctx, "0", "flow-1", tok, 0); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}
	if _, err := store.Token(ctx, "0", "flow-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired token, got %v", err)
	}
}

func TestRedisStoreFlowDeleteKeepsToken(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewRedisStore(rdb, "pf")
	ctx := context.Background()

	rec := sampleRecord()
	rec.ExpiresAt = time.Now().Add(time.Hour).Unix()
	if err := store.Save(ctx, rec, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.SaveToken(ctx, rec.TenantID, rec.FlowID, &TokenRecord{Token: "tok"}, 0); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	if err := store.Delete(ctx, rec.TenantID, rec.FlowID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := store.Token(ctx, rec.TenantID, rec.FlowID); err != nil {
		t.Fatalf("expected token to survive flow deletion, got %v", err)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewRedisStore(rdb, "pf")
	mr.Close()

	if _, err := store.Get(context.Background(), "0", "x"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
	if err := store.Save(context.Background(), sampleRecord(), time.Minute); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
