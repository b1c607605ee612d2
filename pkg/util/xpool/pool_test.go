package xpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// 构造
// =============================================================================

func TestNew_InvalidArgs(t *testing.T) {
	_, err := New[int](1, 1, nil)
	assert.ErrorIs(t, err, ErrNilHandler)

	_, err = New(0, 1, func(int) {})
	assert.ErrorIs(t, err, ErrInvalidWorkers)

	_, err = New(1, 0, func(int) {})
	assert.ErrorIs(t, err, ErrInvalidQueueSize)
}

// =============================================================================
// 提交与执行
// =============================================================================

func TestPool_Submit_TasksAreProcessed(t *testing.T) {
	var processed atomic.Int64
	pool, err := New(4, 64, func(int) {
		processed.Add(1)
	})
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		require.NoError(t, pool.Submit(i))
	}
	pool.Close()

	assert.Equal(t, int64(50), processed.Load())
}

func TestPool_Submit_QueueFull_FailsFast(t *testing.T) {
	block := make(chan struct{})
	pool, err := New(1, 1, func(int) {
		<-block
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		close(block)
		pool.Close()
	})

	// 第一个任务占住 worker，第二个填满队列
	require.NoError(t, pool.Submit(1))
	require.Eventually(t, func() bool {
		return pool.Submit(2) == nil
	}, time.Second, time.Millisecond)

	assert.ErrorIs(t, pool.Submit(3), ErrQueueFull)
}

func TestPool_Submit_AfterClose_ReturnsError(t *testing.T) {
	pool, err := New(1, 1, func(int) {})
	require.NoError(t, err)
	pool.Close()

	assert.ErrorIs(t, pool.Submit(1), ErrPoolClosed)
}

func TestPool_SubmitClose_Concurrent_NoPanic(t *testing.T) {
	pool, err := New(2, 8, func(int) {})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = pool.Submit(j)
			}
		}()
	}
	pool.Close()
	wg.Wait()
}

// =============================================================================
// 关闭与故障隔离
// =============================================================================

func TestPool_Close_DrainsQueue(t *testing.T) {
	var processed atomic.Int64
	pool, err := New(1, 32, func(int) {
		time.Sleep(time.Millisecond)
		processed.Add(1)
	})
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.NoError(t, pool.Submit(i))
	}
	pool.Close()

	assert.Equal(t, int64(20), processed.Load(), "Close 必须处理完队列剩余任务")
}

func TestPool_Close_Idempotent(t *testing.T) {
	pool, err := New(1, 1, func(int) {})
	require.NoError(t, err)
	pool.Close()
	pool.Close()
}

func TestPool_HandlerPanic_DoesNotKillPool(t *testing.T) {
	var processed atomic.Int64
	pool, err := New(1, 8, func(v int) {
		if v == 0 {
			panic("boom")
		}
		processed.Add(1)
	}, WithLogger(nil), WithName("panicky"))
	require.NoError(t, err)

	require.NoError(t, pool.Submit(0))
	require.NoError(t, pool.Submit(1))
	require.NoError(t, pool.Submit(2))
	pool.Close()

	assert.Equal(t, int64(2), processed.Load())
}
