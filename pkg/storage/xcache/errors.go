package xcache

import "errors"

var (
	// ErrNilClient 表示传入的 Redis 客户端为 nil。
	ErrNilClient = errors.New("xcache: nil client")

	// ErrNilLocker 表示传入的锁实现为 nil。
	ErrNilLocker = errors.New("xcache: nil locker")

	// ErrNilLoader 表示回源函数为 nil。
	ErrNilLoader = errors.New("xcache: nil loader function")

	// ErrEmptyKey 表示 key 前缀与 id 拼接后为空字符串。
	ErrEmptyKey = errors.New("xcache: empty key")

	// ErrTooManyRetries 表示互斥重建策略等待锁释放超过重试上限。
	// 这是瞬时不可用信号，调用方可降级或稍后重试。
	ErrTooManyRetries = errors.New("xcache: rebuild lock contention, too many retries")
)
