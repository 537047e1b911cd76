package session

import (
	"context"
	"sync"
	"time"
)

// MemStore is an in-process [Store] for tests, demos, and single-node
// deployments where Redis is not worth running. Expiry is enforced
// lazily on read.
type MemStore struct {
	mu     sync.RWMutex
	flows  map[string]memEntry
	tokens map[string]memTokenEntry
}

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

type memTokenEntry struct {
	tok       TokenRecord
	expiresAt time.Time
}

// NewMemStore creates an empty [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		flows:  make(map[string]memEntry),
		tokens: make(map[string]memTokenEntry),
	}
}

func memKey(tenantID, flowID string) string {
	return normalizeTenantID(tenantID) + ":" + flowID
}

// Save stores an encoded copy of rec so later mutations of the caller's
// Record cannot leak into the store.
func (s *MemStore) Save(_ context.Context, rec *Record, ttl time.Duration) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}

	entry := memEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.flows[memKey(rec.TenantID, rec.FlowID)] = entry
	s.mu.Unlock()
	return nil
}

// Get retrieves a flow record, or [ErrNotFound] when missing or expired.
func (s *MemStore) Get(_ context.Context, tenantID, flowID string) (*Record, error) {
	key := memKey(tenantID, flowID)

	s.mu.RLock()
	entry, ok := s.flows[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if !entry.expiresAt.IsZero() && !time.Now().Before(entry.expiresAt) {
		s.mu.Lock()
		delete(s.flows, key)
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	return Decode(entry.data)
}

// Delete removes a flow record. Idempotent.
func (s *MemStore) Delete(_ context.Context, tenantID, flowID string) error {
	s.mu.Lock()
	delete(s.flows, memKey(tenantID, flowID))
	s.mu.Unlock()
	return nil
}

// SaveToken stores a copy of tok. A zero ttl stores it without expiry.
func (s *MemStore) SaveToken(_ context.Context, tenantID, flowID string, tok *TokenRecord, ttl time.Duration) error {
	entry := memTokenEntry{tok: *tok}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.tokens[memKey(tenantID, flowID)] = entry
	s.mu.Unlock()
	return nil
}

// Token retrieves the issued token for a flow, or [ErrNotFound].
func (s *MemStore) Token(_ context.Context, tenantID, flowID string) (*TokenRecord, error) {
	key := memKey(tenantID, flowID)

	s.mu.RLock()
	entry, ok := s.tokens[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if !entry.expiresAt.IsZero() && !time.Now().Before(entry.expiresAt) {
		s.mu.Lock()
		delete(s.tokens, key)
		s.mu.Unlock()
		return nil, ErrNotFound
	}

	tok := entry.tok
	return &tok, nil
}

// DeleteToken removes an issued token. Idempotent.
func (s *MemStore) DeleteToken(_ context.Context, tenantID, flowID string) error {
	s.mu.Lock()
	delete(s.tokens, memKey(tenantID, flowID))
	s.mu.Unlock()
	return nil
}
