package xpool

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Pool 是一个有界的泛型 worker pool。
// 所有方法并发安全。
type Pool[T any] struct {
	handler func(T)
	queue   chan T
	wg      sync.WaitGroup

	closed    atomic.Bool
	closeOnce sync.Once

	logger *slog.Logger
	name   string
}

// New 创建并启动 worker pool。
//
// 参数：
//   - workers: worker 数量，必须 >= 1
//   - queueSize: 任务队列容量，必须 >= 1
//   - handler: 任务处理函数，不能为 nil
//
// 创建后 worker 立即运行，无需手动启动。
func New[T any](workers, queueSize int, handler func(T), opts ...Option) (*Pool[T], error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if workers < 1 {
		return nil, ErrInvalidWorkers
	}
	if queueSize < 1 {
		return nil, ErrInvalidQueueSize
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	p := &Pool[T]{
		handler: handler,
		queue:   make(chan T, queueSize),
		logger:  options.logger,
		name:    options.name,
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p, nil
}

// worker 从队列消费任务直到队列关闭。
// 不监听关闭信号，保证 Close 时队列中剩余任务被处理完（优雅关闭）。
func (p *Pool[T]) worker() {
	defer p.wg.Done()
	for task := range p.queue {
		p.run(task)
	}
}

// run 执行单个任务，捕获 panic。
func (p *Pool[T]) run(task T) {
	defer func() {
		if r := recover(); r != nil {
			if p.logger != nil {
				p.logger.Error("xpool: task panic recovered",
					"pool", p.name, "panic", r)
			}
		}
	}()
	p.handler(task)
}

// Submit 提交任务。
// 队列满返回 ErrQueueFull，pool 已关闭返回 ErrPoolClosed，均不阻塞。
func (p *Pool[T]) Submit(task T) (err error) {
	// 捕获 Close 与 Submit 并发时极小窗口内的 send on closed channel panic：
	// closed 置位后、队列关闭前，select 可能恰好选中发送分支。
	defer func() {
		if r := recover(); r != nil {
			err = ErrPoolClosed
		}
	}()

	if p.closed.Load() {
		return ErrPoolClosed
	}

	select {
	case p.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close 关闭 pool。
// 先拒绝新任务，再等待队列中剩余任务全部处理完成。幂等。
func (p *Pool[T]) Close() {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.queue)
		p.wg.Wait()
	})
}

// Pending 返回当前排队中的任务数（瞬时值，仅用于观测）。
func (p *Pool[T]) Pending() int {
	return len(p.queue)
}
