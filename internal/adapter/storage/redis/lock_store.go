package redis

import (
	"context"
	"fmt"
	"time"

	"walletbridge/internal/core/ports"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the lease only when it is still held by the caller,
// so a slow holder whose TTL elapsed cannot release someone else's lease.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore implements ports.RecordLocker using Redis SET NX with a holder
// token and TTL. The TTL is the safety net against crashed holders.
type LockStore struct {
	client *goredis.Client
	prefix string
}

// NewLockStore creates a new Redis-backed record locker.
func NewLockStore(client *goredis.Client) *LockStore {
	return &LockStore{
		client: client,
		prefix: "lock:",
	}
}

// Acquire attempts to take the lease for key. acquired=false means another
// holder owns it.
func (s *LockStore) Acquire(ctx context.Context, key string, ttl time.Duration) (ports.Lease, bool, error) {
	token := uuid.NewString()
	fullKey := s.prefix + key

	ok, err := s.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis lock acquire: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	return &lease{client: s.client, key: fullKey, token: token}, true, nil
}

type lease struct {
	client *goredis.Client
	key    string
	token  string
}

// Release drops the lease if this holder still owns it. Safe to call more
// than once.
func (l *lease) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil && err != goredis.Nil {
		return fmt.Errorf("redis lock release: %w", err)
	}
	return nil
}
