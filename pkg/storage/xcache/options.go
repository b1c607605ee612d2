package xcache

import (
	"log/slog"
	"time"
)

// 默认配置值。
const (
	// DefaultNullTTL 空哨兵的默认 TTL。
	// 哨兵只为吸收对不存在 id 的重复查询，宜短不宜长。
	DefaultNullTTL = 2 * time.Minute

	// DefaultMutexLease 互斥重建锁的默认租约。
	DefaultMutexLease = 10 * time.Second

	// DefaultRebuildLease 逻辑过期重建锁的默认租约。
	// 同时是重建任务卡死时的故障兜底上限。
	DefaultRebuildLease = 10 * time.Second

	// DefaultMutexRetryAttempts 互斥策略的默认重试上限（含首次）。
	DefaultMutexRetryAttempts = 8

	// DefaultMutexRetryDelay 互斥策略抢锁失败后的默认等待间隔。
	DefaultMutexRetryDelay = 50 * time.Millisecond

	// DefaultLoadTimeout 异步重建任务的默认回源超时。
	DefaultLoadTimeout = 30 * time.Second

	// DefaultRebuildWorkers 重建 worker 的默认数量。
	// 取决于热点 key 的数量级，需按场景调整。
	DefaultRebuildWorkers = 10

	// DefaultRebuildQueueSize 重建任务队列的默认容量。
	DefaultRebuildQueueSize = 64
)

// 锁名前缀，区分两类重建锁。
const (
	mutexLockPrefix   = "mutex:"
	rebuildLockPrefix = "rebuild:"
)

// Options 定义 Client 的配置选项。
type Options struct {
	// NullTTL 空哨兵的过期时间。
	NullTTL time.Duration

	// MutexLease 互斥重建锁的租约。
	MutexLease time.Duration

	// RebuildLease 逻辑过期重建锁的租约。
	RebuildLease time.Duration

	// MutexRetryAttempts 互斥策略整体重读的最大尝试次数（含首次）。
	MutexRetryAttempts int

	// MutexRetryDelay 互斥策略两次尝试之间的等待间隔。
	MutexRetryDelay time.Duration

	// LoadTimeout 异步重建任务的回源超时。
	// 重建任务脱离读者的 context 运行，需独立超时防止 loader 卡死。
	LoadTimeout time.Duration

	// RebuildWorkers 异步重建 worker 数量。
	RebuildWorkers int

	// RebuildQueueSize 异步重建任务队列容量。
	RebuildQueueSize int

	// EnableSingleflight 是否合并进程内同 key 的并发回源。
	// 默认为 true。
	EnableSingleflight bool

	// Logger 用于记录重建失败等警告日志。
	// 默认使用 slog.Default()，传入 nil 禁用。
	Logger *slog.Logger
}

// Option 定义配置 Client 的函数类型。
type Option func(*Options)

// defaultOptions 返回默认配置。
func defaultOptions() *Options {
	return &Options{
		NullTTL:            DefaultNullTTL,
		MutexLease:         DefaultMutexLease,
		RebuildLease:       DefaultRebuildLease,
		MutexRetryAttempts: DefaultMutexRetryAttempts,
		MutexRetryDelay:    DefaultMutexRetryDelay,
		LoadTimeout:        DefaultLoadTimeout,
		RebuildWorkers:     DefaultRebuildWorkers,
		RebuildQueueSize:   DefaultRebuildQueueSize,
		EnableSingleflight: true,
		Logger:             slog.Default(),
	}
}

// WithNullTTL 设置空哨兵 TTL。
func WithNullTTL(ttl time.Duration) Option {
	return func(o *Options) {
		if ttl > 0 {
			o.NullTTL = ttl
		}
	}
}

// WithMutexLease 设置互斥重建锁租约。
func WithMutexLease(lease time.Duration) Option {
	return func(o *Options) {
		if lease > 0 {
			o.MutexLease = lease
		}
	}
}

// WithRebuildLease 设置逻辑过期重建锁租约。
func WithRebuildLease(lease time.Duration) Option {
	return func(o *Options) {
		if lease > 0 {
			o.RebuildLease = lease
		}
	}
}

// WithMutexRetry 设置互斥策略的重试上限与间隔。
func WithMutexRetry(attempts int, delay time.Duration) Option {
	return func(o *Options) {
		if attempts > 0 {
			o.MutexRetryAttempts = attempts
		}
		if delay > 0 {
			o.MutexRetryDelay = delay
		}
	}
}

// WithLoadTimeout 设置异步重建任务的回源超时。
func WithLoadTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		if timeout > 0 {
			o.LoadTimeout = timeout
		}
	}
}

// WithRebuildPool 设置异步重建 worker 数量与队列容量。
func WithRebuildPool(workers, queueSize int) Option {
	return func(o *Options) {
		if workers > 0 {
			o.RebuildWorkers = workers
		}
		if queueSize > 0 {
			o.RebuildQueueSize = queueSize
		}
	}
}

// WithSingleflight 设置是否启用进程内 singleflight。
func WithSingleflight(enable bool) Option {
	return func(o *Options) {
		o.EnableSingleflight = enable
	}
}

// WithLogger 设置自定义 Logger。传入 nil 禁用日志输出。
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}
