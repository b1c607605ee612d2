package xlock

// DefaultKeyPrefix 是锁 key 的默认前缀。
const DefaultKeyPrefix = "lock:"

// Options 定义 Locker 的配置选项。
type Options struct {
	// KeyPrefix 锁 key 的前缀，用于与业务 key 隔离。
	// 默认为 "lock:"。
	KeyPrefix string
}

// Option 定义配置 Locker 的函数类型。
type Option func(*Options)

// defaultOptions 返回默认配置。
func defaultOptions() *Options {
	return &Options{
		KeyPrefix: DefaultKeyPrefix,
	}
}

// WithKeyPrefix 设置锁 key 前缀。
func WithKeyPrefix(prefix string) Option {
	return func(o *Options) {
		o.KeyPrefix = prefix
	}
}
