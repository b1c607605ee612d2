package xseckill

import (
	"context"
	"time"
)

// Order 是一笔已准入、待落库的订单。
//
// 由 Purchase 在准入通过后构造，经有界队列移交给 Worker；
// 落库成功前进程崩溃会丢失队列中的订单（见包文档的补偿缺口说明）。
type Order struct {
	// ID 是 Purchase 返回给调用方的订单 ID。
	ID int64

	// UserID 是下单用户。
	UserID int64

	// SKUID 是被购买的商品。
	SKUID int64

	// EnqueuedAt 是准入通过的时刻。
	EnqueuedAt time.Time
}

// Store 是订单的持久化存储。
//
// Create 在 (UserID, SKUID) 已存在时必须返回 ErrOrderExists，
// 其余错误视为瞬时故障。
type Store interface {
	// Exists 报告该用户对该 SKU 是否已有持久化订单。
	Exists(ctx context.Context, userID, skuID int64) (bool, error)

	// Create 持久化一笔订单。
	Create(ctx context.Context, order Order) error

	// CountBySKU 返回该 SKU 的持久化订单数，Reconciler 比对用。
	CountBySKU(ctx context.Context, skuID int64) (int64, error)
}

// pending 在队列内部为订单附加重试计数，重试语义不暴露给调用方。
type pending struct {
	order    Order
	attempts int
}
