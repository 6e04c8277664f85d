package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "entitlement:"

// RedisStore backs entitlements with Redis so multiple gateway instances
// share settlement state. SET is atomic per key, which gives the
// idempotent-upsert guarantee without any locking.
type RedisStore struct {
	client *redis.Client

	// TTL bounds how long a settled entitlement stays redeemable. Zero
	// means no expiry, matching the reference in-memory behavior. A
	// non-zero TTL is an operational knob against unbounded growth and
	// does not change the protocol contract.
	TTL time.Duration
}

// NewRedisStore creates a Redis-backed entitlement store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) IsSettled(ctx context.Context, paymentID string) (bool, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+paymentID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return false, err
	}
	return rec.Settled, nil
}

func (s *RedisStore) RecordSettlement(ctx context.Context, paymentID, txHash string, at time.Time) error {
	rec := Record{Settled: true, TxHash: txHash, SettledAt: at}
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+paymentID, payload, s.TTL).Err()
}
