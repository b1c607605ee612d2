// Package xcache 提供热点 key 读路径的缓存保护客户端。
//
// # 三种读策略
//
// 所有策略共享 "keyPrefix + id + 回源函数 + TTL" 的调用形态，按 key 的
// 热度与一致性要求在调用点选择：
//
//   - Get（防穿透）：未命中回源；回源为空时写入短 TTL 的空哨兵，
//     哨兵命中直接返回空，不再触达后端。
//   - GetWithMutex（防击穿，中等热度）：未命中时抢互斥锁重建；抢锁
//     失败短暂等待后整体重读，重试次数有上限，超限返回
//     ErrTooManyRetries 而非无限自旋。
//   - GetWithLogicalExpire（防击穿，极端热点，读者永不阻塞）：条目以
//     {payload, 逻辑过期时间} 信封写入且无物理 TTL，必须预热。过期后
//     读者立即返回旧值，同时单次尝试重建锁，成功则把重建任务提交到
//     有界 worker pool 异步执行。以有界的陈旧换取零阻塞。
//
// # 错误约定
//
// 策略 1、2 的回源错误原样上抛；策略 3 的回源错误在异步任务内捕获并
// 记录日志，且无论哪条退出路径都保证释放重建锁。
//
// 同一 key 的重建写入由对应的 mutex/rebuild 锁串行化，读取不加锁。
// 可选 singleflight 合并进程内同 key 并发回源。
package xcache
