package xconf

import "errors"

// 配置加载和解析相关错误。
var (
	// ErrEmptyPath 表示配置文件路径为空。
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 表示不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 表示配置加载失败。
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 表示配置解析失败。
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrInvalidConfig 表示配置校验失败。
	ErrInvalidConfig = errors.New("xconf: invalid config")

	// ErrNotWatchable 表示从字节数据创建的 Loader 不支持重载与监视。
	ErrNotWatchable = errors.New("xconf: config not backed by a file")
)
