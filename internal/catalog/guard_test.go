package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGuardModes(t *testing.T) {
	guard, err := NewGuard(GuardConfig{})
	require.NoError(t, err)
	assert.IsType(t, NoGuard{}, guard)

	guard, err = NewGuard(GuardConfig{Mode: " Local "})
	require.NoError(t, err)
	assert.IsType(t, &LocalGuard{}, guard)

	_, err = NewGuard(GuardConfig{Mode: GuardRedis})
	assert.Error(t, err, "redis needs an address")

	_, err = NewGuard(GuardConfig{Mode: "etcd"})
	assert.Error(t, err)
}

func assertSerialized(t *testing.T, guard Guard) {
	t.Helper()
	var active, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := guard.Do(context.Background(), "same-key", func(context.Context) error {
				n := atomic.AddInt32(&active, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), peak)
}

func TestLocalGuardSerializesKey(t *testing.T) {
	guard := NewLocalGuard()
	assertSerialized(t, guard)
	assert.Empty(t, guard.locks, "idle keys are released")
}

func TestLocalGuardHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := NewLocalGuard().Do(ctx, "k", func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestLocalGuardDeduplicatesConcurrentPrinters(t *testing.T) {
	f := newFixture(t, WithGuard(NewLocalGuard()))

	ids := make([]string, 6)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := f.repo.CreateOrGetPrinter(context.Background(), "shared-printer", nil)
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

// TestRedisGuardIntegration requires a running Redis.
func TestRedisGuardIntegration(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}

	guard := NewRedisGuard(client, 2*time.Second)
	assertSerialized(t, guard)

	exists, err := client.Exists(context.Background(), redisLockPrefix+"same-key").Result()
	require.NoError(t, err)
	assert.Zero(t, exists, "lock released")
}
