package xlock

import "errors"

var (
	// ErrNilClient 表示传入的 Redis 客户端为 nil。
	ErrNilClient = errors.New("xlock: nil client")

	// ErrEmptyName 表示锁名称为空字符串。
	ErrEmptyName = errors.New("xlock: empty lock name")

	// ErrInvalidLease 表示租约时长无效。
	// 租约必须为正值，它同时是锁的崩溃恢复上限。
	ErrInvalidLease = errors.New("xlock: lease must be positive")

	// ErrNilHandle 表示释放时传入的句柄为 nil，或并非本 Locker 签发。
	ErrNilHandle = errors.New("xlock: nil or foreign lock handle")

	// ErrLockExpired 表示释放时锁已过期或被其他持有者抢走。
	// 释放退化为 no-op，当前持有者的锁不受影响。通常意味着临界区
	// 耗时超过了租约，调用方应考虑加大 lease。
	ErrLockExpired = errors.New("xlock: lock expired or taken by another holder")
)
