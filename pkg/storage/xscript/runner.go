package xscript

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// =============================================================================
// Runner
// =============================================================================

// Runner 执行预注册的命名脚本。
// 所有方法并发安全。
type Runner struct {
	client  redis.UniversalClient
	mu      sync.RWMutex
	scripts map[string]*redis.Script
}

// NewRunner 创建脚本执行器。
// client 必须是已初始化的 redis.UniversalClient。
func NewRunner(client redis.UniversalClient) (*Runner, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &Runner{
		client:  client,
		scripts: make(map[string]*redis.Script),
	}, nil
}

// Register 注册命名脚本。
// 同名重复注册返回 ErrDuplicateScript。
func (r *Runner) Register(name, src string) error {
	if name == "" {
		return ErrEmptyName
	}
	if src == "" {
		return ErrEmptySource
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.scripts[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateScript, name)
	}
	r.scripts[name] = redis.NewScript(src)
	return nil
}

// MustRegister 与 Register 相同，但失败时 panic。
// 适用于包初始化阶段的固定脚本注册。
func (r *Runner) MustRegister(name, src string) {
	if err := r.Register(name, src); err != nil {
		panic(err)
	}
}

// Run 执行指定名称的脚本，返回整型结果。
// go-redis 的 Script 会优先 EVALSHA，脚本未缓存时自动回退 EVAL。
// 存储错误包装为 ErrScriptFailed 上抛，调用方必须 fail-closed 处理。
func (r *Runner) Run(ctx context.Context, name string, keys []string, args ...any) (int64, error) {
	r.mu.RLock()
	script, ok := r.scripts[name]
	r.mu.RUnlock()

	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrScriptNotFound, name)
	}

	result, err := script.Run(ctx, r.client, keys, args...).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrScriptFailed, name, err)
	}
	return result, nil
}

// Registered 返回指定名称的脚本是否已注册。
func (r *Runner) Registered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.scripts[name]
	return ok
}

// Client 返回底层的 redis.UniversalClient。
func (r *Runner) Client() redis.UniversalClient {
	return r.client
}
