package xlock

import (
	"context"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/omeyang/flashkit/pkg/storage/xscript"
)

// unlockScriptName 是释放脚本在 xscript 注册表中的名称。
const unlockScriptName = "xlock:unlock"

// unlockScript 校验持有者令牌后删除锁 key。
// 返回 1 表示成功释放，0 表示锁已不属于当前持有者（过期或被抢走）。
const unlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

// =============================================================================
// Handle 与 Locker 接口
// =============================================================================

// Handle 是一次成功获取的锁凭据。
// Token 唯一标识本次持有，释放时用于 compare-then-delete 校验。
// Handle 只能交还给签发它的 Locker。
type Handle struct {
	// Key 锁在共享存储中的完整 key（含前缀）。
	Key string

	// Token 本次持有的唯一令牌。
	Token string

	// Lease 获取时声明的租约时长。
	Lease time.Duration

	// mutex 仅 RedsyncLocker 签发的句柄持有。
	mutex *redsync.Mutex
}

// Locker 定义跨进程互斥锁接口。
type Locker interface {
	// TryLock 非阻塞地尝试获取名为 name 的锁。
	// 锁被占用时返回 (nil, nil)——竞争失败是正常的否定结果，不是错误。
	// 存储不可达等基础设施故障返回非 nil 错误。
	TryLock(ctx context.Context, name string, lease time.Duration) (*Handle, error)

	// Unlock 释放 handle 对应的锁。
	// 锁已过期或被抢走时返回 ErrLockExpired（释放是 no-op）。
	Unlock(ctx context.Context, handle *Handle) error
}

// =============================================================================
// RedisLocker
// =============================================================================

// RedisLocker 基于单套 Redis（单节点或集群）的轻量锁实现。
type RedisLocker struct {
	client  redis.UniversalClient
	runner  *xscript.Runner
	options *Options
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisLocker 创建 Redis 锁实现。
// client 必须是已初始化的 redis.UniversalClient。
func NewRedisLocker(client redis.UniversalClient, opts ...Option) (*RedisLocker, error) {
	if client == nil {
		return nil, ErrNilClient
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	runner, err := xscript.NewRunner(client)
	if err != nil {
		return nil, err
	}
	runner.MustRegister(unlockScriptName, unlockScript)

	return &RedisLocker{
		client:  client,
		runner:  runner,
		options: options,
	}, nil
}

// TryLock 以 SET NX PX 原子获取锁，存入本次持有的唯一令牌。
func (l *RedisLocker) TryLock(ctx context.Context, name string, lease time.Duration) (*Handle, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if lease <= 0 {
		return nil, ErrInvalidLease
	}

	key := l.options.KeyPrefix + name
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, lease).Result()
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, nil // 锁被占用
	}

	return &Handle{
		Key:   key,
		Token: token,
		Lease: lease,
	}, nil
}

// Unlock 通过 compare-then-delete 脚本释放锁。
// 读取、比较、删除在存储侧一步完成，杜绝"锁过期后误删他人锁"的竞态；
// 直接 DEL 往往也"能用"，但在租约到期与释放之间存在窗口，不允许。
func (l *RedisLocker) Unlock(ctx context.Context, handle *Handle) error {
	if handle == nil || handle.Token == "" {
		return ErrNilHandle
	}

	result, err := l.runner.Run(ctx, unlockScriptName, []string{handle.Key}, handle.Token)
	if err != nil {
		return err
	}
	if result == 0 {
		return ErrLockExpired
	}
	return nil
}
