package xseckill

import (
	"log/slog"
	"time"

	"github.com/go-redis/redis_rate/v10"
)

// === 配置选项 ===

const (
	// DefaultQueueCapacity 是订单队列的默认容量。
	DefaultQueueCapacity = 1024

	// DefaultOrderLockLease 是 Worker 用户级锁的默认租约。
	DefaultOrderLockLease = 10 * time.Second

	// DefaultPersistTimeout 是单笔订单落库的默认超时。
	DefaultPersistTimeout = 5 * time.Second

	// DefaultSequenceKey 是订单 ID 序列的默认逻辑 key。
	DefaultSequenceKey = "order"
)

// Options 定义控制器的配置。
type Options struct {
	// QueueCapacity 是订单队列容量，默认 DefaultQueueCapacity。
	// 队列满时 Purchase 快速失败返回 ErrQueueFull。
	QueueCapacity int

	// OrderLockLease 是 Worker 获取用户级锁的租约，默认 DefaultOrderLockLease。
	OrderLockLease time.Duration

	// PersistTimeout 是单笔订单落库（锁 + 查重 + 写入）的超时，
	// 默认 DefaultPersistTimeout。
	PersistTimeout time.Duration

	// SequenceKey 是订单 ID 序列的逻辑 key，默认 DefaultSequenceKey。
	SequenceKey string

	// UserRateLimit 非 nil 时启用用户级限流，准入脚本执行前检查。
	UserRateLimit *redis_rate.Limit

	// Logger 用于记录 Worker 异常与容量信号，默认 slog.Default()。
	Logger *slog.Logger
}

// Option 是配置选项函数。
type Option func(*Options)

// WithQueueCapacity 设置订单队列容量。
func WithQueueCapacity(capacity int) Option {
	return func(o *Options) {
		if capacity > 0 {
			o.QueueCapacity = capacity
		}
	}
}

// WithOrderLockLease 设置 Worker 用户级锁的租约。
func WithOrderLockLease(lease time.Duration) Option {
	return func(o *Options) {
		if lease > 0 {
			o.OrderLockLease = lease
		}
	}
}

// WithPersistTimeout 设置单笔订单落库的超时。
func WithPersistTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		if timeout > 0 {
			o.PersistTimeout = timeout
		}
	}
}

// WithSequenceKey 设置订单 ID 序列的逻辑 key。
func WithSequenceKey(key string) Option {
	return func(o *Options) {
		if key != "" {
			o.SequenceKey = key
		}
	}
}

// WithUserRateLimit 启用用户级限流。
//
// 限流按用户 ID 维度在共享存储上执行，多实例部署下配额全局生效。
func WithUserRateLimit(limit redis_rate.Limit) Option {
	return func(o *Options) {
		o.UserRateLimit = &limit
	}
}

// WithLogger 设置日志记录器，nil 则丢弃日志。
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		o.Logger = logger
	}
}

func defaultOptions() *Options {
	return &Options{
		QueueCapacity:  DefaultQueueCapacity,
		OrderLockLease: DefaultOrderLockLease,
		PersistTimeout: DefaultPersistTimeout,
		SequenceKey:    DefaultSequenceKey,
		Logger:         slog.Default(),
	}
}
