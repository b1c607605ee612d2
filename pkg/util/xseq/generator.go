package xseq

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// === ID 布局常量 ===

const (
	// CounterBits 是计数器分量占用的位数。
	CounterBits = 32

	// counterMask 截取计数器的低 32 位，计数器按秒回绕。
	counterMask = int64(1)<<CounterBits - 1

	// maxElapsed 是时间分量可表示的最大秒数（int64 符号位之外还剩 31 位）。
	maxElapsed = int64(1)<<31 - 1

	// dayLayout 按自然日切分计数器 key。
	dayLayout = "20060102"
)

// Generator 是基于共享计数器的序列 ID 生成器。
//
// 并发安全，可被任意多个 goroutine 共享。
type Generator struct {
	client  redis.UniversalClient
	options *Options
}

// New 创建序列 ID 生成器。
func New(client redis.UniversalClient, opts ...Option) (*Generator, error) {
	if client == nil {
		return nil, ErrNilClient
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Generator{
		client:  client,
		options: options,
	}, nil
}

// Next 为指定逻辑 key 生成下一个序列 ID。
//
// 同一逻辑 key 共享同一个按日计数器：任意进程持同一 key 调用，
// 得到的 ID 互不重复。不同逻辑 key 的序列彼此独立。
func (g *Generator) Next(ctx context.Context, logicalKey string) (int64, error) {
	if logicalKey == "" {
		return 0, ErrEmptyKey
	}

	now := g.options.now().UTC()
	elapsed := now.Unix() - g.options.Epoch.Unix()
	if elapsed < 0 {
		return 0, fmt.Errorf("%w: now=%s epoch=%s",
			ErrClockBeforeEpoch, now.Format(time.RFC3339), g.options.Epoch.Format(time.RFC3339))
	}
	if elapsed > maxElapsed {
		return 0, fmt.Errorf("%w: elapsed=%d max=%d", ErrTimeOverflow, elapsed, maxElapsed)
	}

	counterKey := g.options.KeyPrefix + logicalKey + ":" + now.Format(dayLayout)
	counter, err := g.client.Incr(ctx, counterKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrStoreFailed, counterKey, err)
	}

	return elapsed<<CounterBits | counter&counterMask, nil
}

// Timestamp 从序列 ID 还原其生成时刻（秒精度）。
func (g *Generator) Timestamp(id int64) time.Time {
	return g.options.Epoch.Add(time.Duration(id>>CounterBits) * time.Second)
}
