package xseq

import "errors"

// === 序列生成器错误定义 ===

var (
	// ErrNilClient 表示未提供存储客户端。
	ErrNilClient = errors.New("xseq: nil redis client")

	// ErrEmptyKey 表示逻辑 key 为空。
	ErrEmptyKey = errors.New("xseq: empty logical key")

	// ErrClockBeforeEpoch 表示当前时间早于纪元，无法编码时间分量。
	ErrClockBeforeEpoch = errors.New("xseq: clock before epoch")

	// ErrTimeOverflow 表示自纪元起的秒数超出时间分量可表示的范围。
	ErrTimeOverflow = errors.New("xseq: elapsed seconds overflow time component")

	// ErrStoreFailed 表示共享存储的自增操作失败。
	ErrStoreFailed = errors.New("xseq: sequence store operation failed")
)
