package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockroom/pkg/config"
)

func TestSetNXAndCompareAndDelete(t *testing.T) {
	ctx := context.Background()
	client := &Client{store: newMockCmdable()}
	key := client.LockKey("stock-alerts")

	ok, err := client.SetNX(ctx, key, "owner-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = client.SetNX(ctx, key, "owner-b", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	owner, err := client.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "owner-a", owner)

	deleted, err := client.CompareAndDelete(ctx, key, "owner-b")
	require.NoError(t, err)
	require.False(t, deleted)

	deleted, err = client.CompareAndDelete(ctx, key, "owner-a")
	require.NoError(t, err)
	require.True(t, deleted)
	_, err = client.Get(ctx, key)
	require.ErrorIs(t, err, Nil)
}

func TestCompareAndSwapRequiresExpectedValue(t *testing.T) {
	ctx := context.Background()
	store := newMockCmdable()
	client := &Client{store: store}
	key := client.IdempotencyKey("POST /api/v1/orders", "abc")

	ok, err := client.SetNX(ctx, key, "pending", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	swapped, err := client.CompareAndSwap(ctx, key, "someone-else", "done", time.Hour)
	require.NoError(t, err)
	require.False(t, swapped)

	swapped, err = client.CompareAndSwap(ctx, key, "pending", "done", time.Hour)
	require.NoError(t, err)
	require.True(t, swapped)
	require.Equal(t, time.Hour, store.ttls[key])

	value, err := client.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "done", value)
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	require.Error(t, client.Ping(context.Background()))
	_, err := client.Get(context.Background(), "k")
	require.Error(t, err)
	require.NoError(t, client.Close())
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	require.Equal(t, "stockroom:lock:stock-alerts", client.LockKey("stock-alerts"))
	require.Equal(t, "stockroom:counter:scans", client.CounterKey("scans"))
	require.Equal(t, "stockroom:lock", client.LockKey(""))
	require.Equal(t, "stockroom:idem:POST /api/v1/orders:abc", client.IdempotencyKey("POST /api/v1/orders", "abc"))
}

func TestIncrWithTTLSetsWindowOnce(t *testing.T) {
	ctx := context.Background()
	store := newMockCmdable()
	client := &Client{store: store}
	key := client.CounterKey("rl:import:10.0.0.1")

	count, err := client.IncrWithTTL(ctx, key, time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Equal(t, time.Minute, store.ttls[key])

	store.ttls[key] = 0
	count, err = client.IncrWithTTL(ctx, key, time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
	require.Zero(t, store.ttls[key])

	for i := int64(3); i <= 5; i++ {
		count, err = client.IncrWithTTL(ctx, key, time.Minute)
		require.NoError(t, err)
		require.Equal(t, i, count)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7})
	require.NoError(t, err)
	require.Equal(t, "localhost:6379", opts.Addr)
	require.Equal(t, 2, opts.DB)
	require.Equal(t, 7, opts.PoolSize)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 3})
	require.NoError(t, err)
	require.Equal(t, "cache:6379", opts.Addr)
	require.Equal(t, 3, opts.DB)
}

type mockCmdable struct {
	data map[string]string
	incr map[string]int64
	ttls map[string]time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

// Eval emulates the scripts the client sends.
func (m *mockCmdable) Eval(_ context.Context, script string, keys []string, args ...any) *redis.Cmd {
	key := keys[0]
	switch script {
	case incrWindowScript:
		m.incr[key]++
		if m.incr[key] == 1 {
			m.ttls[key] = time.Duration(args[0].(int64)) * time.Millisecond
		}
		return redis.NewCmdResult(m.incr[key], nil)
	case compareDeleteScript:
		if v, ok := m.data[key]; ok && v == args[0] {
			delete(m.data, key)
			return redis.NewCmdResult(int64(1), nil)
		}
		return redis.NewCmdResult(int64(0), nil)
	case compareSwapScript:
		if v, ok := m.data[key]; ok && v == args[0] {
			m.data[key] = args[1].(string)
			m.ttls[key] = time.Duration(args[2].(int64)) * time.Millisecond
			return redis.NewCmdResult(int64(1), nil)
		}
		return redis.NewCmdResult(int64(0), nil)
	}
	return redis.NewCmdResult(nil, fmt.Errorf("unexpected script"))
}
