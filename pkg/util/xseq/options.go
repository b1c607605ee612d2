package xseq

import "time"

// === 配置选项 ===

// DefaultEpoch 是时间分量的默认纪元（2022-01-01T00:00:00Z）。
var DefaultEpoch = time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)

// DefaultKeyPrefix 是计数器 key 的默认前缀。
const DefaultKeyPrefix = "seq:"

// Options 定义序列生成器的配置。
type Options struct {
	// Epoch 是时间分量的纪元，默认 DefaultEpoch。
	Epoch time.Time

	// KeyPrefix 是计数器 key 的前缀，默认 "seq:"。
	KeyPrefix string

	// now 返回当前时间，测试用。
	now func() time.Time
}

// Option 是配置选项函数。
type Option func(*Options)

// WithEpoch 设置时间分量的纪元。
func WithEpoch(epoch time.Time) Option {
	return func(o *Options) {
		o.Epoch = epoch
	}
}

// WithKeyPrefix 设置计数器 key 的前缀。
func WithKeyPrefix(prefix string) Option {
	return func(o *Options) {
		o.KeyPrefix = prefix
	}
}

// withNow 替换时钟源，仅测试使用。
func withNow(now func() time.Time) Option {
	return func(o *Options) {
		o.now = now
	}
}

func defaultOptions() *Options {
	return &Options{
		Epoch:     DefaultEpoch,
		KeyPrefix: DefaultKeyPrefix,
		now:       time.Now,
	}
}
