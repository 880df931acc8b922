// Package memory keeps ephemeral session state in process memory. It is used
// when no Redis address is configured and is only safe for a single replica.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/paperdesk/internal/domain/model"
)

type capabilityEntry struct {
	caps      model.Capabilities
	expiresAt time.Time
}

// CapabilityCache stores resolved capabilities per profile until their TTL passes.
type CapabilityCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[uuid.UUID]capabilityEntry
}

// NewCapabilityCache creates an empty cache.
func NewCapabilityCache(ttl time.Duration) *CapabilityCache {
	return &CapabilityCache{ttl: ttl, now: time.Now, entries: make(map[uuid.UUID]capabilityEntry)}
}

func (c *CapabilityCache) Get(_ context.Context, profileID uuid.UUID) (model.Capabilities, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[profileID]
	c.mu.RUnlock()
	if !ok || !c.now().Before(entry.expiresAt) {
		return model.Capabilities{}, false, nil
	}
	return entry.caps, true, nil
}

func (c *CapabilityCache) Set(_ context.Context, profileID uuid.UUID, caps model.Capabilities) error {
	c.mu.Lock()
	c.entries[profileID] = capabilityEntry{caps: caps, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

func (c *CapabilityCache) Invalidate(_ context.Context, profileID uuid.UUID) error {
	c.mu.Lock()
	delete(c.entries, profileID)
	c.mu.Unlock()
	return nil
}

// TokenRevocations remembers revoked token ids until the token would have expired anyway.
type TokenRevocations struct {
	mu      sync.Mutex
	now     func() time.Time
	revoked map[string]time.Time
}

func NewTokenRevocations() *TokenRevocations {
	return &TokenRevocations{now: time.Now, revoked: make(map[string]time.Time)}
}

func (r *TokenRevocations) Revoke(_ context.Context, tokenID string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, exp := range r.revoked {
		if !now.Before(exp) {
			delete(r.revoked, id)
		}
	}
	if now.Before(until) {
		r.revoked[tokenID] = until
	}
	return nil
}

func (r *TokenRevocations) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exp, ok := r.revoked[tokenID]
	return ok && r.now().Before(exp), nil
}
