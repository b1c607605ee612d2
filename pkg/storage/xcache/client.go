package xcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/omeyang/flashkit/pkg/distributed/xlock"
	"github.com/omeyang/flashkit/pkg/util/xpool"
)

// =============================================================================
// Client
// =============================================================================

// Loader 定义从后端加载数据的回源函数。
// 返回 (nil, nil) 表示数据不存在。必须幂等且可被并发调用。
type Loader[T any] func(ctx context.Context, id string) (*T, error)

// Client 是缓存保护客户端。
// 读策略以包级泛型函数提供（Get / GetWithMutex / GetWithLogicalExpire），
// 写入口为 Set / SetWithLogicalExpire。所有方法并发安全。
type Client struct {
	client  redis.UniversalClient
	locker  xlock.Locker
	options *Options
	group   singleflight.Group
	pool    *xpool.Pool[func()]
}

// New 创建缓存保护客户端。
// locker 用于互斥与逻辑过期两种重建策略的写串行化。
func New(client redis.UniversalClient, locker xlock.Locker, opts ...Option) (*Client, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if locker == nil {
		return nil, ErrNilLocker
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	pool, err := xpool.New(
		options.RebuildWorkers,
		options.RebuildQueueSize,
		func(task func()) { task() },
		xpool.WithName("xcache-rebuild"),
		xpool.WithLogger(options.Logger),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		client:  client,
		locker:  locker,
		options: options,
		pool:    pool,
	}, nil
}

// Close 关闭客户端，等待进行中的异步重建任务完成。
// 不关闭传入的 Redis 客户端，其生命周期由调用方管理。
func (c *Client) Close() {
	c.pool.Close()
}

// Client 返回底层的 redis.UniversalClient。
func (c *Client) Client() redis.UniversalClient {
	return c.client
}

// =============================================================================
// 写入口
// =============================================================================

// envelope 是逻辑过期条目的存储信封。
// 条目没有物理 TTL，新鲜度仅由 ExpireAt 判定。
type envelope struct {
	Data     json.RawMessage `json:"data"`
	ExpireAt time.Time       `json:"expireAt"`
}

// Set 以物理 TTL 写入序列化后的值。
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("xcache: marshal value for %q: %w", key, err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// SetWithLogicalExpire 以逻辑过期信封写入值，条目不设置物理 TTL。
// 这是逻辑过期策略的预热入口：条目必须先写入，读路径才不会物理未命中。
func (c *Client) SetWithLogicalExpire(ctx context.Context, key string, value any, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("xcache: marshal value for %q: %w", key, err)
	}
	env, err := json.Marshal(envelope{
		Data:     data,
		ExpireAt: time.Now().Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("xcache: marshal envelope for %q: %w", key, err)
	}
	return c.client.Set(ctx, key, env, 0).Err()
}

// =============================================================================
// 内部辅助
// =============================================================================

// setSentinel 写入空哨兵，吸收对不存在 id 的重复查询。
// 写入失败不影响业务返回（best-effort），仅记录日志。
func (c *Client) setSentinel(ctx context.Context, key string) {
	if err := c.client.Set(ctx, key, "", c.options.NullTTL).Err(); err != nil {
		c.logWarn("xcache: sentinel set failed", "key", key, "error", err)
	}
}

// unlock 释放重建锁。
// 使用脱离调用方取消链的独立 context，避免读者取消导致锁悬挂到租约期满。
// ErrLockExpired 是预期情况（重建耗时超过租约），降级为提示日志。
func (c *Client) unlock(ctx context.Context, handle *xlock.Handle) {
	unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handle.Lease)
	defer cancel()

	if err := c.locker.Unlock(unlockCtx, handle); err != nil {
		if errors.Is(err, xlock.ErrLockExpired) {
			c.logInfo("xcache: rebuild lock expired before unlock (consider increasing lease)",
				"key", handle.Key)
			return
		}
		c.logWarn("xcache: unlock failed", "key", handle.Key, "error", err)
	}
}

func (c *Client) logInfo(msg string, args ...any) {
	if c.options.Logger != nil {
		c.options.Logger.Info(msg, args...)
	}
}

func (c *Client) logWarn(msg string, args ...any) {
	if c.options.Logger != nil {
		c.options.Logger.Warn(msg, args...)
	}
}
