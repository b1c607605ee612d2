package xcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/redis/go-redis/v9"
)

// errLockContention 是互斥策略内部的可重试信号：锁被其他重建者持有。
var errLockContention = errors.New("xcache: rebuild in progress")

// =============================================================================
// 策略一：防穿透直读
// =============================================================================

// Get 以防穿透策略读取 keyPrefix+id 对应的值。
// 未命中时回源；回源为空则写入短 TTL 空哨兵后返回 (nil, nil)，
// 哨兵命中同样返回 (nil, nil) 且不再调用 loader。
func Get[T any](ctx context.Context, c *Client, keyPrefix, id string, loader Loader[T], ttl time.Duration) (*T, error) {
	key := keyPrefix + id
	if err := validate(c, key, loader); err != nil {
		return nil, err
	}

	return merged(c, key, func() (*T, error) {
		return passThrough(ctx, c, key, id, loader, ttl)
	})
}

func passThrough[T any](ctx context.Context, c *Client, key, id string, loader Loader[T], ttl time.Duration) (*T, error) {
	value, found, err := lookup[T](ctx, c, key)
	if err != nil {
		return nil, err
	}
	if found {
		return value, nil
	}

	loaded, err := loader(ctx, id)
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		c.setSentinel(ctx, key)
		return nil, nil
	}

	// 写入失败不影响业务返回（best-effort）
	if setErr := c.Set(ctx, key, loaded, ttl); setErr != nil {
		c.logWarn("xcache: cache set failed", "key", key, "error", setErr)
	}
	return loaded, nil
}

// =============================================================================
// 策略二：互斥重建
// =============================================================================

// GetWithMutex 以互斥重建策略读取 keyPrefix+id 对应的值。
// 未命中时抢 mutex 锁重建；抢锁失败等待后从头重读，最多
// MutexRetryAttempts 次，超限返回 ErrTooManyRetries。
func GetWithMutex[T any](ctx context.Context, c *Client, keyPrefix, id string, loader Loader[T], ttl time.Duration) (*T, error) {
	key := keyPrefix + id
	if err := validate(c, key, loader); err != nil {
		return nil, err
	}

	return merged(c, key, func() (*T, error) {
		value, err := retry.NewWithData[*T](
			retry.Context(ctx),
			retry.Attempts(uint(c.options.MutexRetryAttempts)),
			retry.Delay(c.options.MutexRetryDelay),
			retry.DelayType(retry.FixedDelay),
			retry.LastErrorOnly(true),
			retry.RetryIf(func(err error) bool {
				return errors.Is(err, errLockContention)
			}),
		).Do(func() (*T, error) {
			return mutexRebuild(ctx, c, key, id, loader, ttl)
		})
		if errors.Is(err, errLockContention) {
			return nil, ErrTooManyRetries
		}
		return value, err
	})
}

func mutexRebuild[T any](ctx context.Context, c *Client, key, id string, loader Loader[T], ttl time.Duration) (*T, error) {
	value, found, err := lookup[T](ctx, c, key)
	if err != nil {
		return nil, err
	}
	if found {
		return value, nil
	}

	handle, err := c.locker.TryLock(ctx, mutexLockPrefix+key, c.options.MutexLease)
	if err != nil {
		return nil, err
	}
	if handle == nil {
		return nil, errLockContention // 他人正在重建，等待后整体重读
	}
	defer c.unlock(ctx, handle)

	// 拿到锁后 double-check，前一个持有者可能已经重建完成
	value, found, err = lookup[T](ctx, c, key)
	if err != nil {
		return nil, err
	}
	if found {
		return value, nil
	}

	loaded, err := loader(ctx, id)
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		c.setSentinel(ctx, key)
		return nil, nil
	}

	if setErr := c.Set(ctx, key, loaded, ttl); setErr != nil {
		c.logWarn("xcache: cache set failed", "key", key, "error", setErr)
	}
	return loaded, nil
}

// =============================================================================
// 策略三：逻辑过期重建
// =============================================================================

// GetWithLogicalExpire 以逻辑过期策略读取 keyPrefix+id 对应的值。
// 条目必须经 SetWithLogicalExpire 预热，物理未命中返回 (nil, nil)。
// 逻辑过期后立即返回旧值，同时单次尝试 rebuild 锁；成功则把重建任务
// 提交到有界 worker pool 异步执行，失败不做任何等待——下一个读者会
// 再次尝试。读者在任何情况下都不阻塞。
func GetWithLogicalExpire[T any](ctx context.Context, c *Client, keyPrefix, id string, loader Loader[T], ttl time.Duration) (*T, error) {
	key := keyPrefix + id
	if err := validate(c, key, loader); err != nil {
		return nil, err
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 未预热
		}
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	var value T
	if err := json.Unmarshal(env.Data, &value); err != nil {
		return nil, err
	}

	if env.ExpireAt.After(time.Now()) {
		return &value, nil
	}

	// 已逻辑过期：先安排重建，再返回旧值
	c.scheduleRebuild(ctx, key, id, func(rebuildCtx context.Context) error {
		loaded, loadErr := loader(rebuildCtx, id)
		if loadErr != nil {
			return loadErr
		}
		return c.SetWithLogicalExpire(rebuildCtx, key, loaded, ttl)
	})
	return &value, nil
}

// scheduleRebuild 单次尝试 rebuild 锁，成功后提交异步重建任务。
// 锁在任务的所有退出路径上保证释放；提交失败（队列满/已关闭）立即解锁，
// 把重建机会留给下一个读者。
func (c *Client) scheduleRebuild(ctx context.Context, key, id string, rebuild func(ctx context.Context) error) {
	handle, err := c.locker.TryLock(ctx, rebuildLockPrefix+key, c.options.RebuildLease)
	if err != nil {
		c.logWarn("xcache: rebuild lock attempt failed", "key", key, "error", err)
		return
	}
	if handle == nil {
		return // 已有重建在进行中
	}

	task := func() {
		// 任务脱离读者的 context 运行，独立超时防止 loader 卡死；
		// 锁租约是最后的故障兜底。
		taskCtx, cancel := context.WithTimeout(context.Background(), c.options.LoadTimeout)
		defer cancel()
		defer c.unlock(taskCtx, handle)

		if rebuildErr := rebuild(taskCtx); rebuildErr != nil {
			c.logWarn("xcache: async rebuild failed", "key", key, "id", id, "error", rebuildErr)
		}
	}

	if submitErr := c.pool.Submit(task); submitErr != nil {
		c.unlock(ctx, handle)
		c.logWarn("xcache: rebuild task rejected", "key", key, "error", submitErr)
	}
}

// =============================================================================
// 公共片段
// =============================================================================

// lookup 读取缓存，返回 (value, found, error)。
// found 为 true 且 value 为 nil 表示命中空哨兵。
func lookup[T any](ctx context.Context, c *Client, key string) (*T, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if len(raw) == 0 {
		return nil, true, nil // 空哨兵
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false, err
	}
	return &value, true, nil
}

// merged 可选地用 singleflight 合并进程内同 key 的并发回源。
func merged[T any](c *Client, key string, fetch func() (*T, error)) (*T, error) {
	if !c.options.EnableSingleflight {
		return fetch()
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		return fetch()
	})
	if err != nil {
		return nil, err
	}
	value, ok := result.(*T)
	if !ok {
		// 同一 key 被以不同类型并发读取，属于调用方接线错误
		return fetch()
	}
	return value, nil
}

func validate[T any](c *Client, key string, loader Loader[T]) error {
	if key == "" {
		return ErrEmptyKey
	}
	if loader == nil {
		return ErrNilLoader
	}
	return nil
}
