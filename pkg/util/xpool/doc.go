// Package xpool 提供有界的泛型 worker pool。
//
// Pool 用于异步执行后台任务（如缓存重建），核心约束：
//   - Submit 永不阻塞：队列满返回 ErrQueueFull，由调用方决定丢弃或降级
//   - 任务 panic 被捕获并记录，单个任务失败不影响 pool
//   - Close 优雅关闭：拒绝新任务，处理完队列中剩余任务后返回
//
// # 注意事项
//
//   - 任务应设计为幂等，同一逻辑任务可能被提交多次
//   - Close 不可在 handler 内调用，否则死锁
//   - panic 的任务不重试，仅记录日志后丢弃
package xpool
