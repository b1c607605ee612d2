package xlock

import (
	"context"
	"errors"
	"time"

	"github.com/go-redsync/redsync/v4"
	rsredis "github.com/go-redsync/redsync/v4/redis"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// =============================================================================
// RedsyncLocker
// =============================================================================

// RedsyncLocker 基于 Redlock 算法的 Locker 实现。
// 单节点等价于标准 Redis 锁；传入多个独立节点时需过半获取成功。
// 适用于不信任单套 Redis 可用性的部署，接口语义与 RedisLocker 一致。
type RedsyncLocker struct {
	rs      *redsync.Redsync
	options *Options
}

var _ Locker = (*RedsyncLocker)(nil)

// NewRedsyncLocker 创建 Redlock 锁实现。
// 每个 client 对应一个独立的 Redis 节点。
func NewRedsyncLocker(clients []redis.UniversalClient, opts ...Option) (*RedsyncLocker, error) {
	if len(clients) == 0 {
		return nil, ErrNilClient
	}
	for _, client := range clients {
		if client == nil {
			return nil, ErrNilClient
		}
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	pools := make([]rsredis.Pool, len(clients))
	for i, client := range clients {
		pools[i] = goredis.NewPool(client)
	}

	return &RedsyncLocker{
		rs:      redsync.New(pools...),
		options: options,
	}, nil
}

// TryLock 非阻塞地尝试获取锁（Tries=1，不在原语内部重试）。
func (l *RedsyncLocker) TryLock(ctx context.Context, name string, lease time.Duration) (*Handle, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if lease <= 0 {
		return nil, ErrInvalidLease
	}

	key := l.options.KeyPrefix + name
	mutex := l.rs.NewMutex(key,
		redsync.WithExpiry(lease),
		redsync.WithTries(1),
		redsync.WithFailFast(true),
	)

	if err := mutex.TryLockContext(ctx); err != nil {
		// redsync 不传递 context 错误，需要单独检查
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var taken *redsync.ErrTaken
		if errors.As(err, &taken) || errors.Is(err, redsync.ErrFailed) {
			return nil, nil // 锁被占用
		}
		return nil, err
	}

	return &Handle{
		Key:   key,
		Token: mutex.Value(),
		Lease: lease,
		mutex: mutex,
	}, nil
}

// Unlock 释放锁。令牌校验由 redsync 的释放脚本完成。
func (l *RedsyncLocker) Unlock(ctx context.Context, handle *Handle) error {
	if handle == nil || handle.mutex == nil {
		return ErrNilHandle
	}

	ok, err := handle.mutex.UnlockContext(ctx)
	if err != nil {
		if errors.Is(err, redsync.ErrLockAlreadyExpired) {
			return ErrLockExpired
		}
		return err
	}
	if !ok {
		return ErrLockExpired
	}
	return nil
}
