package xseckill

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/flashkit/pkg/distributed/xlock"
	"github.com/omeyang/flashkit/pkg/util/xseq"
)

// fakeStore 是内存订单存储，支持按次注入 Create 错误。
type fakeStore struct {
	mu         sync.Mutex
	rows       map[[2]int64]Order
	createErrs []error
	creates    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[[2]int64]Order)}
}

func (s *fakeStore) Exists(_ context.Context, userID, skuID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[[2]int64{userID, skuID}]
	return ok, nil
}

func (s *fakeStore) Create(_ context.Context, order Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates++
	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		if err != nil {
			return err
		}
	}
	key := [2]int64{order.UserID, order.SKUID}
	if _, ok := s.rows[key]; ok {
		return ErrOrderExists
	}
	s.rows[key] = order
	return nil
}

func (s *fakeStore) CountBySKU(_ context.Context, skuID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key := range s.rows {
		if key[1] == skuID {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) has(userID, skuID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[[2]int64{userID, skuID}]
	return ok
}

func (s *fakeStore) createCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates
}

func (s *fakeStore) put(order Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[[2]int64{order.UserID, order.SKUID}] = order
}

func newTestController(t *testing.T, store Store, opts ...Option) (*Controller, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	gen, err := xseq.New(rdb)
	require.NoError(t, err)
	locker, err := xlock.NewRedisLocker(rdb)
	require.NoError(t, err)

	ctrl, err := New(rdb, gen, locker, store, opts...)
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)
	return ctrl, mr
}

func TestNew_Validation(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	gen, err := xseq.New(rdb)
	require.NoError(t, err)
	locker, err := xlock.NewRedisLocker(rdb)
	require.NoError(t, err)
	store := newFakeStore()

	tests := []struct {
		name string
		fn   func() (*Controller, error)
		want error
	}{
		{"nil client", func() (*Controller, error) { return New(nil, gen, locker, store) }, ErrNilClient},
		{"nil generator", func() (*Controller, error) { return New(rdb, nil, locker, store) }, ErrNilGenerator},
		{"nil locker", func() (*Controller, error) { return New(rdb, gen, nil, store) }, ErrNilLocker},
		{"nil store", func() (*Controller, error) { return New(rdb, gen, locker, nil) }, ErrNilStore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPurchase_SoldOut(t *testing.T) {
	ctrl, _ := newTestController(t, newFakeStore())
	ctx := context.Background()

	require.NoError(t, ctrl.SeedStock(ctx, 100, 1))

	id, err := ctrl.Purchase(ctx, 100, 1)
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = ctrl.Purchase(ctx, 100, 2)
	assert.ErrorIs(t, err, ErrSoldOut)
}

func TestPurchase_Duplicate(t *testing.T) {
	ctrl, _ := newTestController(t, newFakeStore())
	ctx := context.Background()

	require.NoError(t, ctrl.SeedStock(ctx, 100, 5))

	_, err := ctrl.Purchase(ctx, 100, 1)
	require.NoError(t, err)

	_, err = ctrl.Purchase(ctx, 100, 1)
	assert.ErrorIs(t, err, ErrDuplicateOrder)

	stock, err := ctrl.Stock(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stock, "被拒绝的重复请求不得扣减库存")
}

func TestPurchase_NeverOversells(t *testing.T) {
	ctrl, _ := newTestController(t, newFakeStore())
	ctx := context.Background()

	const stock = 5
	const attempts = 40
	require.NoError(t, ctrl.SeedStock(ctx, 100, stock))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		soldOut  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			_, err := ctrl.Purchase(ctx, 100, user)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case errors.Is(err, ErrSoldOut):
				soldOut++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, stock, admitted)
	assert.Equal(t, attempts-stock, soldOut)

	remaining, err := ctrl.Stock(ctx, 100)
	require.NoError(t, err)
	assert.Zero(t, remaining, "每次成功准入恰好扣减一次库存")
}

func TestPurchase_QueueFull(t *testing.T) {
	// Worker 未启动模拟消费停滞
	ctrl, _ := newTestController(t, newFakeStore(), WithQueueCapacity(1))
	ctx := context.Background()

	require.NoError(t, ctrl.SeedStock(ctx, 100, 5))

	_, err := ctrl.Purchase(ctx, 100, 1)
	require.NoError(t, err)

	_, err = ctrl.Purchase(ctx, 100, 2)
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestPurchase_AfterClose(t *testing.T) {
	ctrl, _ := newTestController(t, newFakeStore())
	ctx := context.Background()

	require.NoError(t, ctrl.SeedStock(ctx, 100, 5))
	ctrl.Close()

	_, err := ctrl.Purchase(ctx, 100, 1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPurchase_RateLimited(t *testing.T) {
	ctrl, _ := newTestController(t, newFakeStore(),
		WithUserRateLimit(redis_rate.Limit{Rate: 1, Burst: 1, Period: time.Minute}))
	ctx := context.Background()

	require.NoError(t, ctrl.SeedStock(ctx, 100, 5))

	_, err := ctrl.Purchase(ctx, 100, 1)
	require.NoError(t, err)

	_, err = ctrl.Purchase(ctx, 100, 1)
	assert.ErrorIs(t, err, ErrRateLimited)

	// 其他用户不受影响
	_, err = ctrl.Purchase(ctx, 100, 2)
	assert.NoError(t, err)
}

func TestPurchase_StoreUnavailable(t *testing.T) {
	ctrl, mr := newTestController(t, newFakeStore())
	ctx := context.Background()

	require.NoError(t, ctrl.SeedStock(ctx, 100, 5))
	mr.Close()

	_, err := ctrl.Purchase(ctx, 100, 1)
	assert.ErrorIs(t, err, ErrAdmissionFailed)
}

func TestSeedStock_ResetsBoughtSet(t *testing.T) {
	ctrl, _ := newTestController(t, newFakeStore())
	ctx := context.Background()

	require.NoError(t, ctrl.SeedStock(ctx, 100, 1))
	_, err := ctrl.Purchase(ctx, 100, 1)
	require.NoError(t, err)

	// 重新上架后同一用户可再次购买
	require.NoError(t, ctrl.SeedStock(ctx, 100, 1))
	_, err = ctrl.Purchase(ctx, 100, 1)
	assert.NoError(t, err)
}

func TestWorker_PersistsOrder(t *testing.T) {
	store := newFakeStore()
	ctrl, mr := newTestController(t, store)
	ctx := context.Background()

	require.NoError(t, ctrl.SeedStock(ctx, 100, 5))
	ctrl.Start()

	orderID, err := ctrl.Purchase(ctx, 100, 1)
	require.NoError(t, err)
	assert.Positive(t, orderID)

	assert.Eventually(t, func() bool {
		return store.has(1, 100)
	}, 2*time.Second, 10*time.Millisecond)

	ctrl.Close()
	assert.Equal(t, 1, store.createCalls())
	assert.False(t, mr.Exists("lock:order:1"), "落库完成后用户级锁应已释放")
}

func TestWorker_DoubleCheckSkipsExisting(t *testing.T) {
	store := newFakeStore()
	store.put(Order{ID: 999, UserID: 1, SKUID: 100})

	ctrl, _ := newTestController(t, store)
	ctx := context.Background()

	require.NoError(t, ctrl.SeedStock(ctx, 100, 5))
	ctrl.Start()

	// 准入脚本按已购集合去重，存量订单不在集合中时准入会放行，
	// Worker 的存量查重兜底拦截
	_, err := ctrl.Purchase(ctx, 100, 1)
	require.NoError(t, err)

	ctrl.Close()
	assert.Zero(t, store.createCalls(), "存量查重命中后不得再写入")
}

func TestWorker_RequeuesOnTransientFailure(t *testing.T) {
	store := newFakeStore()
	store.createErrs = []error{errors.New("connection reset")}

	ctrl, _ := newTestController(t, store)
	ctx := context.Background()

	require.NoError(t, ctrl.SeedStock(ctx, 100, 5))
	ctrl.Start()

	_, err := ctrl.Purchase(ctx, 100, 1)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return store.has(1, 100)
	}, 2*time.Second, 10*time.Millisecond)

	ctrl.Close()
	assert.Equal(t, 2, store.createCalls(), "瞬时失败后恰好重试一次")
}

func TestWorker_NoRetryOnOrderExists(t *testing.T) {
	store := newFakeStore()
	store.createErrs = []error{ErrOrderExists}

	ctrl, _ := newTestController(t, store)
	ctx := context.Background()

	require.NoError(t, ctrl.SeedStock(ctx, 100, 5))
	ctrl.Start()

	_, err := ctrl.Purchase(ctx, 100, 1)
	require.NoError(t, err)

	ctrl.Close()
	assert.Equal(t, 1, store.createCalls(), "唯一约束冲突是逻辑异常，不重试")
	assert.False(t, store.has(1, 100))
}

func TestClose_DrainsQueue(t *testing.T) {
	store := newFakeStore()
	ctrl, _ := newTestController(t, store)
	ctx := context.Background()

	require.NoError(t, ctrl.SeedStock(ctx, 100, 10))
	for i := int64(1); i <= 5; i++ {
		_, err := ctrl.Purchase(ctx, 100, i)
		require.NoError(t, err)
	}

	// 入队完成后才启动 Worker，Close 必须等队列排空
	ctrl.Start()
	ctrl.Close()

	for i := int64(1); i <= 5; i++ {
		assert.True(t, store.has(i, 100))
	}
}
