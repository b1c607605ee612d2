package xscript

import "errors"

var (
	// ErrNilClient 表示传入的 Redis 客户端为 nil。
	ErrNilClient = errors.New("xscript: nil client")

	// ErrEmptyName 表示脚本名称为空字符串。
	ErrEmptyName = errors.New("xscript: empty script name")

	// ErrEmptySource 表示脚本源码为空字符串。
	ErrEmptySource = errors.New("xscript: empty script source")

	// ErrDuplicateScript 表示同名脚本已注册。
	// 脚本注册表是只增的，重复注册几乎总是接线错误，应 fail-fast。
	ErrDuplicateScript = errors.New("xscript: script already registered")

	// ErrScriptNotFound 表示按名称查找脚本失败。
	ErrScriptNotFound = errors.New("xscript: script not registered")

	// ErrScriptFailed 表示脚本执行期间存储返回错误。
	// 调用方必须按失败处理（fail-closed），不得假设脚本的任何步骤已生效。
	ErrScriptFailed = errors.New("xscript: script execution failed")
)
