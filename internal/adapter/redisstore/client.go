// Package redisstore keeps shared session state in Redis so several API
// replicas can serve the same checkout.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	domainErrors "github.com/polkiloo/paperdesk/internal/domain/errors"
	"github.com/polkiloo/paperdesk/internal/domain/model"
)

// New connects to Redis and verifies the connection.
func New(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// CapabilityCache stores capabilities as JSON with a TTL.
type CapabilityCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCapabilityCache(rdb *redis.Client, ttl time.Duration) *CapabilityCache {
	return &CapabilityCache{rdb: rdb, ttl: ttl}
}

func (c *CapabilityCache) Get(ctx context.Context, profileID uuid.UUID) (model.Capabilities, bool, error) {
	raw, err := c.rdb.Get(ctx, key(keyCapabilities, profileID.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Capabilities{}, false, nil
	}
	if err != nil {
		return model.Capabilities{}, false, err
	}
	var caps model.Capabilities
	if err := json.Unmarshal(raw, &caps); err != nil {
		return model.Capabilities{}, false, err
	}
	return caps, true, nil
}

func (c *CapabilityCache) Set(ctx context.Context, profileID uuid.UUID, caps model.Capabilities) error {
	raw, err := json.Marshal(caps)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key(keyCapabilities, profileID.String()), raw, c.ttl).Err()
}

func (c *CapabilityCache) Invalidate(ctx context.Context, profileID uuid.UUID) error {
	return c.rdb.Del(ctx, key(keyCapabilities, profileID.String())).Err()
}

// TokenRevocations keeps one key per revoked token id.
type TokenRevocations struct {
	rdb *redis.Client
	now func() time.Time
}

func NewTokenRevocations(rdb *redis.Client) *TokenRevocations {
	return &TokenRevocations{rdb: rdb, now: time.Now}
}

func (r *TokenRevocations) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, key(keyRevoked, tokenID), "1", ttl).Err()
}

func (r *TokenRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, key(keyRevoked, tokenID)).Result()
	return n > 0, err
}

// ApprovalBroker stores the first decision under a key and publishes it on a
// channel of the same name, so an awaiting replica wakes up immediately.
type ApprovalBroker struct {
	rdb *redis.Client
}

func NewApprovalBroker(rdb *redis.Client) *ApprovalBroker {
	return &ApprovalBroker{rdb: rdb}
}

func (b *ApprovalBroker) Signal(ctx context.Context, checkoutID string, decision model.ApprovalDecision) error {
	k := key(keyApproval, checkoutID)
	stored, err := b.rdb.SetNX(ctx, k, string(decision), TTLApproval).Result()
	if err != nil {
		return err
	}
	if !stored {
		return nil
	}
	return b.rdb.Publish(ctx, k, string(decision)).Err()
}

func (b *ApprovalBroker) Await(ctx context.Context, checkoutID string) (model.ApprovalDecision, error) {
	k := key(keyApproval, checkoutID)
	sub := b.rdb.Subscribe(ctx, k)
	defer sub.Close()

	// the subscription must be live before the key is checked, otherwise a
	// decision published in between is lost
	if _, err := sub.Receive(ctx); err != nil {
		return "", err
	}

	stored, err := b.rdb.Get(ctx, k).Result()
	switch {
	case err == nil:
		return model.ApprovalDecision(stored), nil
	case !errors.Is(err, redis.Nil):
		return "", err
	}

	select {
	case msg, ok := <-sub.Channel():
		if !ok {
			return "", errors.New("approval subscription closed")
		}
		return model.ApprovalDecision(msg.Payload), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// CheckoutTracker stores snapshots as JSON.
type CheckoutTracker struct {
	rdb *redis.Client
}

func NewCheckoutTracker(rdb *redis.Client) *CheckoutTracker {
	return &CheckoutTracker{rdb: rdb}
}

func (t *CheckoutTracker) Save(ctx context.Context, snapshot model.CheckoutSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return t.rdb.Set(ctx, key(keyCheckout, snapshot.ID), raw, TTLCheckout).Err()
}

func (t *CheckoutTracker) Get(ctx context.Context, checkoutID string) (*model.CheckoutSnapshot, error) {
	raw, err := t.rdb.Get(ctx, key(keyCheckout, checkoutID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domainErrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var snapshot model.CheckoutSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
