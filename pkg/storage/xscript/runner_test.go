package xscript

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// 测试辅助
// =============================================================================

func newTestRunner(t *testing.T) (*Runner, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	runner, err := NewRunner(client)
	require.NoError(t, err)
	return runner, mr
}

// =============================================================================
// 构造与注册
// =============================================================================

func TestNewRunner_NilClient_ReturnsError(t *testing.T) {
	runner, err := NewRunner(nil)
	assert.Nil(t, runner)
	assert.ErrorIs(t, err, ErrNilClient)
}

func TestRegister_EmptyName_ReturnsError(t *testing.T) {
	runner, _ := newTestRunner(t)
	assert.ErrorIs(t, runner.Register("", "return 0"), ErrEmptyName)
}

func TestRegister_EmptySource_ReturnsError(t *testing.T) {
	runner, _ := newTestRunner(t)
	assert.ErrorIs(t, runner.Register("noop", ""), ErrEmptySource)
}

func TestRegister_Duplicate_ReturnsError(t *testing.T) {
	runner, _ := newTestRunner(t)
	require.NoError(t, runner.Register("noop", "return 0"))
	assert.ErrorIs(t, runner.Register("noop", "return 1"), ErrDuplicateScript)
	assert.True(t, runner.Registered("noop"))
}

func TestMustRegister_Duplicate_Panics(t *testing.T) {
	runner, _ := newTestRunner(t)
	runner.MustRegister("noop", "return 0")
	assert.Panics(t, func() {
		runner.MustRegister("noop", "return 0")
	})
}

// =============================================================================
// 执行
// =============================================================================

func TestRun_UnknownName_ReturnsError(t *testing.T) {
	runner, _ := newTestRunner(t)
	_, err := runner.Run(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, ErrScriptNotFound)
}

func TestRun_CompareThenDelete_IsAtomic(t *testing.T) {
	// Given：经典的 compare-then-delete 脚本
	runner, mr := newTestRunner(t)
	runner.MustRegister("cad", `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`)
	mr.Set("k", "owner-a")

	ctx := context.Background()

	// When：非持有者尝试删除
	result, err := runner.Run(ctx, "cad", []string{"k"}, "owner-b")

	// Then：key 保持不变
	require.NoError(t, err)
	assert.Equal(t, int64(0), result)
	assert.True(t, mr.Exists("k"))

	// When：持有者删除
	result, err = runner.Run(ctx, "cad", []string{"k"}, "owner-a")

	// Then：删除成功
	require.NoError(t, err)
	assert.Equal(t, int64(1), result)
	assert.False(t, mr.Exists("k"))
}

func TestRun_MultiStepCounter_SingleRoundTrip(t *testing.T) {
	runner, mr := newTestRunner(t)
	runner.MustRegister("decr-if-positive", `
		if tonumber(redis.call("GET", KEYS[1])) > 0 then
			redis.call("DECRBY", KEYS[1], 1)
			return 0
		end
		return 1
	`)
	mr.Set("stock", "1")

	ctx := context.Background()

	result, err := runner.Run(ctx, "decr-if-positive", []string{"stock"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result)

	result, err = runner.Run(ctx, "decr-if-positive", []string{"stock"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result)
}

func TestRun_StoreUnreachable_FailsClosed(t *testing.T) {
	runner, mr := newTestRunner(t)
	runner.MustRegister("noop", "return 0")

	mr.Close()

	_, err := runner.Run(context.Background(), "noop", nil)
	assert.ErrorIs(t, err, ErrScriptFailed)
}
