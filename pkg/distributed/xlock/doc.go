// Package xlock 提供跨进程可见的命名互斥锁。
//
// # 设计理念
//
// 锁的获取是一次原子的 SET NX PX：成功即持有，失败立即返回，
// 原语内部不做任何阻塞重试——重试策略由调用方按场景选择。
// 每次成功获取都会生成唯一的持有者令牌（owner token），释放时通过
// compare-then-delete 脚本校验令牌，保证持有者只能释放自己的锁。
// 若锁已过期并被其他持有者重新获取，释放退化为 no-op 并返回
// ErrLockExpired，这是预期结果而非故障。
//
// # 崩溃恢复
//
// 租约（lease）到期自动清除是唯一的崩溃恢复机制：持有者异常退出后，
// 锁在 lease 到期时自行消失。本包不提供续期/心跳，调用方必须将
// lease 设置为大于临界区的预期耗时。这是文档化的取舍，不是缺口。
//
// # 实现
//
//   - RedisLocker：单节点/集群 Redis 上的轻量锁（SET NX + Lua 释放）
//   - RedsyncLocker：多独立节点场景下基于 Redlock 算法的同接口实现
//
// 两者均实现 Locker 接口，TryLock 在锁被占用时返回 (nil, nil)。
package xlock
