package catalog

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Guard serializes read-then-write dedup paths that share a key.
type Guard interface {
	Do(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Guard modes accepted by NewGuard.
const (
	GuardNone  = "none"
	GuardLocal = "local"
	GuardRedis = "redis"
)

// GuardConfig selects a Guard implementation.
type GuardConfig struct {
	Mode      string
	RedisAddr string
	LockTTL   time.Duration
}

// NewGuard builds the guard named by cfg.Mode. An empty mode is GuardNone.
func NewGuard(cfg GuardConfig) (Guard, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "", GuardNone:
		return NoGuard{}, nil
	case GuardLocal:
		return NewLocalGuard(), nil
	case GuardRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis address is required for the redis guard")
		}
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return NewRedisGuard(client, cfg.LockTTL), nil
	default:
		return nil, fmt.Errorf("unsupported dedup guard: %s", cfg.Mode)
	}
}

// NoGuard runs fn directly. Concurrent identical submissions can each miss
// the existence check and insert duplicates.
type NoGuard struct{}

func (NoGuard) Do(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// LocalGuard serializes callers sharing a key within one process.
type LocalGuard struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu      sync.Mutex
	waiters int
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{locks: make(map[string]*keyLock)}
}

func (g *LocalGuard) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	g.mu.Lock()
	lock, ok := g.locks[key]
	if !ok {
		lock = &keyLock{}
		g.locks[key] = lock
	}
	lock.waiters++
	g.mu.Unlock()

	lock.mu.Lock()
	defer func() {
		lock.mu.Unlock()
		g.mu.Lock()
		lock.waiters--
		if lock.waiters == 0 {
			delete(g.locks, key)
		}
		g.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

const (
	redisLockPrefix     = "printvault:dedup:"
	defaultRedisLockTTL = 30 * time.Second
	redisLockPoll       = 25 * time.Millisecond
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard holds a SET NX PX lock per key so several processes sharing
// one database serialize their dedup checks.
type RedisGuard struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisGuard(client redis.UniversalClient, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = defaultRedisLockTTL
	}
	return &RedisGuard{client: client, ttl: ttl}
}

func (g *RedisGuard) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lockKey := redisLockPrefix + key
	token, err := lockToken()
	if err != nil {
		return err
	}

	for {
		acquired, err := g.client.SetNX(ctx, lockKey, token, g.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire dedup lock %s: %w", key, err)
		}
		if acquired {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(redisLockPoll):
		}
	}

	defer func() {
		// Release on a fresh context so a cancelled caller still frees the lock.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, g.client, []string{lockKey}, token).Err()
	}()

	return fn(ctx)
}

func lockToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
