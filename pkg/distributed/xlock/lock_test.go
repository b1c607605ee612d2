package xlock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// 测试辅助
// =============================================================================

func newTestLocker(t *testing.T, opts ...Option) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker, err := NewRedisLocker(client, opts...)
	require.NoError(t, err)
	return locker, mr
}

// =============================================================================
// 获取
// =============================================================================

func TestRedisLocker_TryLock_AcquiresAndStoresToken(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	handle, err := locker.TryLock(ctx, "order:42", 10*time.Second)

	require.NoError(t, err)
	require.NotNil(t, handle)
	assert.Equal(t, "lock:order:42", handle.Key)
	assert.NotEmpty(t, handle.Token)

	stored, err := mr.Get("lock:order:42")
	require.NoError(t, err)
	assert.Equal(t, handle.Token, stored)
}

func TestRedisLocker_TryLock_Contention_ReturnsNilHandle(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	first, err := locker.TryLock(ctx, "hot", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := locker.TryLock(ctx, "hot", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, second, "竞争失败应返回 nil 句柄而非错误")
}

func TestRedisLocker_TryLock_ConcurrentSameName_OnlyOneWins(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	const goroutines = 32
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		held []*Handle
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := locker.TryLock(ctx, "race", time.Minute)
			require.NoError(t, err)
			if h != nil {
				mu.Lock()
				held = append(held, h)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, held, 1, "同名锁的并发获取最多一个成功")
}

func TestRedisLocker_TryLock_InvalidArgs(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	_, err := locker.TryLock(ctx, "", time.Second)
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = locker.TryLock(ctx, "n", 0)
	assert.ErrorIs(t, err, ErrInvalidLease)
}

func TestRedisLocker_TryLock_LeaseExpiry_FreesLock(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	first, err := locker.TryLock(ctx, "crash", time.Second)
	require.NoError(t, err)
	require.NotNil(t, first)

	// 模拟持有者崩溃：不释放，租约到期
	mr.FastForward(2 * time.Second)

	second, err := locker.TryLock(ctx, "crash", time.Second)
	require.NoError(t, err)
	assert.NotNil(t, second, "租约到期后锁应可重新获取")
}

// =============================================================================
// 释放
// =============================================================================

func TestRedisLocker_Unlock_ByOwner_Releases(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	handle, err := locker.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)

	require.NoError(t, locker.Unlock(ctx, handle))
	assert.False(t, mr.Exists("lock:job"))
}

func TestRedisLocker_Unlock_ByNonOwner_IsNoop(t *testing.T) {
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	handle, err := locker.TryLock(ctx, "job", time.Minute)
	require.NoError(t, err)

	// 伪造一个令牌不同的句柄
	forged := &Handle{Key: handle.Key, Token: "someone-else", Lease: handle.Lease}

	err = locker.Unlock(ctx, forged)
	assert.ErrorIs(t, err, ErrLockExpired)
	assert.True(t, mr.Exists("lock:job"), "非持有者释放必须是 no-op")
}

func TestRedisLocker_Unlock_AfterExpiryAndReacquire_DoesNotStealLock(t *testing.T) {
	// 经典的 unsafe-unlock 场景：A 的锁过期后 B 获取，A 再释放不得影响 B
	locker, mr := newTestLocker(t)
	ctx := context.Background()

	a, err := locker.TryLock(ctx, "shared", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	b, err := locker.TryLock(ctx, "shared", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, b)

	err = locker.Unlock(ctx, a)
	assert.ErrorIs(t, err, ErrLockExpired)

	stored, err := mr.Get("lock:shared")
	require.NoError(t, err)
	assert.Equal(t, b.Token, stored, "B 的锁必须原样保留")
}

func TestRedisLocker_Unlock_NilHandle_ReturnsError(t *testing.T) {
	locker, _ := newTestLocker(t)
	assert.ErrorIs(t, locker.Unlock(context.Background(), nil), ErrNilHandle)
}

// =============================================================================
// 选项
// =============================================================================

func TestWithKeyPrefix_OverridesDefault(t *testing.T) {
	locker, mr := newTestLocker(t, WithKeyPrefix("mutex:"))
	ctx := context.Background()

	handle, err := locker.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "mutex:k", handle.Key)
	assert.True(t, mr.Exists("mutex:k"))
}

// =============================================================================
// RedsyncLocker
// =============================================================================

func TestRedsyncLocker_TryLockUnlock_RoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker, err := NewRedsyncLocker([]redis.UniversalClient{client})
	require.NoError(t, err)

	ctx := context.Background()

	handle, err := locker.TryLock(ctx, "rl", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, handle)
	assert.NotEmpty(t, handle.Token)

	// 占用期间第二次获取失败
	second, err := locker.TryLock(ctx, "rl", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, second)

	require.NoError(t, locker.Unlock(ctx, handle))

	third, err := locker.TryLock(ctx, "rl", time.Minute)
	require.NoError(t, err)
	assert.NotNil(t, third)
}

func TestRedsyncLocker_Unlock_ForeignHandle_ReturnsError(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker, err := NewRedsyncLocker([]redis.UniversalClient{client})
	require.NoError(t, err)

	// RedisLocker 签发的句柄没有 redsync 状态
	err = locker.Unlock(context.Background(), &Handle{Key: "lock:k", Token: "t"})
	assert.ErrorIs(t, err, ErrNilHandle)
}
