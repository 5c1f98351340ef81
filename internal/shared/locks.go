package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLockHeld indicates the critical section is already occupied.
var ErrLockHeld = errors.New("lock already held")

// PricingLockKey builds the redis key guarding invoice generation for a date.
func PricingLockKey(date time.Time) string {
	return fmt.Sprintf("settlement:pricing:%s:lock", date.Format("2006-01-02"))
}

// FarmerPaymentLockKey builds the redis key serialising payments per farmer.
func FarmerPaymentLockKey(farmerID int64) string {
	return fmt.Sprintf("settlement:farmer:%d:payment:lock", farmerID)
}

// Locker guards settlement critical sections. Acquire returns ErrLockHeld
// when the section is occupied; the returned release function must be called
// once the unit of work finishes.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(context.Context) error, error)
}

// RedisLocker implements Locker with SET NX tokens and a TTL safety net.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker constructs a RedisLocker.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl}
}

// releaseScript deletes the lock only when the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Acquire takes the named lock or fails fast with ErrLockHeld.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	token, err := newLockToken()
	if err != nil {
		return nil, fmt.Errorf("shared: lock token: %w", err)
	}
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("shared: acquire %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	release := func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}
	return release, nil
}

func newLockToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
