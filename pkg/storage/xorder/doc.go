// Package xorder 提供基于 PostgreSQL 的订单持久化存储。
//
// Store 实现 xseckill.Store 接口：orders 表以 (user_id, sku_id)
// 唯一约束兜底一人一单，唯一约束冲突映射为
// xseckill.ErrOrderExists，由落库 Worker 按逻辑异常处理。
//
// 基本用法：
//
//	pool, err := pgxpool.New(ctx, dsn)
//	if err != nil { ... }
//	store, err := xorder.NewStore(pool)
//	if err != nil { ... }
//	if err := store.Migrate(ctx); err != nil { ... }
package xorder
