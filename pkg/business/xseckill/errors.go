package xseckill

import "errors"

// === 秒杀准入错误定义 ===
//
// 业务拒绝（售罄、重复、限流、过载）是高频的预期结果，以哨兵错误
// 返回供调用方分支判断；基础设施故障以包装错误向上传播。

var (
	// ErrNilClient 表示未提供存储客户端。
	ErrNilClient = errors.New("xseckill: nil redis client")

	// ErrNilGenerator 表示未提供序列 ID 生成器。
	ErrNilGenerator = errors.New("xseckill: nil sequence generator")

	// ErrNilLocker 表示未提供分布式锁。
	ErrNilLocker = errors.New("xseckill: nil locker")

	// ErrNilStore 表示未提供订单存储。
	ErrNilStore = errors.New("xseckill: nil order store")

	// ErrSoldOut 表示库存不足，准入被拒绝。
	ErrSoldOut = errors.New("xseckill: sold out")

	// ErrDuplicateOrder 表示该用户已购买过此 SKU，准入被拒绝。
	ErrDuplicateOrder = errors.New("xseckill: duplicate order")

	// ErrRateLimited 表示触发用户级限流，准入被拒绝。
	ErrRateLimited = errors.New("xseckill: rate limited")

	// ErrQueueFull 表示订单队列已满，请求被受理前拒绝。
	//
	// 注意：走到这一步库存已被扣减，差异留待 Reconciler 上报。
	ErrQueueFull = errors.New("xseckill: order queue full")

	// ErrClosed 表示控制器已关闭。
	ErrClosed = errors.New("xseckill: controller closed")

	// ErrOrderExists 由 Store.Create 在唯一约束冲突时返回，
	// Worker 将其视为上游逻辑异常记录而非瞬时故障重试。
	ErrOrderExists = errors.New("xseckill: order already exists")

	// ErrAdmissionFailed 表示准入脚本执行失败（存储不可达等）。
	// fail-closed：脚本无法执行时绝不假定准入成功。
	ErrAdmissionFailed = errors.New("xseckill: admission check failed")
)
