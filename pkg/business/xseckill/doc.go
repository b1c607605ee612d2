// Package xseckill 提供秒杀场景的准入控制与异步落库管道。
//
// 核心流程：
//
//	Purchase → 原子准入脚本（库存 + 一人一单）→ 生成订单 ID → 入队
//	                                              ↓
//	                OrderWorker ← 有界队列 ← PendingOrder
//
// 准入脚本是唯一的并发仲裁点：库存校验、去重校验、库存扣减与
// 购买集合写入在共享存储上一步完成，任意数量的并发调用都在此
// 全局串行化。脚本之后的链路（ID 生成、入队、落库）只负责持久化，
// 不再做正确性仲裁。
//
// 返回给调用方的订单 ID 表示"已受理"而非"已落库"：落库由单消费者
// Worker 异步完成，落库顺序不保证与准入顺序一致。
//
// 已知的补偿缺口：准入成功但入队失败（队列满）或进程在落库前崩溃时，
// 库存已扣减而订单未持久化。Reconciler 周期性比对已购集合与持久化
// 订单数并上报差异，只检测不修复。
//
// 基本用法：
//
//	ctrl, err := xseckill.New(rdb, gen, locker, store,
//	    xseckill.WithQueueCapacity(4096),
//	)
//	if err != nil { ... }
//	ctrl.Start()
//	defer ctrl.Close()
//
//	orderID, err := ctrl.Purchase(ctx, skuID, userID)
//	switch {
//	case errors.Is(err, xseckill.ErrSoldOut):        // 已售罄
//	case errors.Is(err, xseckill.ErrDuplicateOrder): // 重复下单
//	case errors.Is(err, xseckill.ErrQueueFull):      // 过载，请稍后重试
//	case err != nil:                                 // 基础设施故障（fail-closed）
//	}
package xseckill
