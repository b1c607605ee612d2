package xseckill

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"

	"github.com/omeyang/flashkit/pkg/distributed/xlock"
	"github.com/omeyang/flashkit/pkg/storage/xscript"
	"github.com/omeyang/flashkit/pkg/util/xseq"
)

// Controller 是秒杀准入控制器。
//
// Purchase 并发安全；Start 启动唯一的落库 Worker，Close 关闭队列
// 并等待 Worker 排空。
type Controller struct {
	client  redis.UniversalClient
	runner  *xscript.Runner
	seq     *xseq.Generator
	locker  xlock.Locker
	store   Store
	limiter *redis_rate.Limiter
	options *Options

	queue     chan pending
	closed    atomic.Bool
	startOnce sync.Once
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New 创建秒杀准入控制器。
//
// 创建后需调用 Start 启动落库 Worker，否则订单只入队不落库。
func New(client redis.UniversalClient, seq *xseq.Generator, locker xlock.Locker, store Store, opts ...Option) (*Controller, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if seq == nil {
		return nil, ErrNilGenerator
	}
	if locker == nil {
		return nil, ErrNilLocker
	}
	if store == nil {
		return nil, ErrNilStore
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	runner, err := xscript.NewRunner(client)
	if err != nil {
		return nil, err
	}
	runner.MustRegister(admissionScriptName, admissionScript)

	c := &Controller{
		client:  client,
		runner:  runner,
		seq:     seq,
		locker:  locker,
		store:   store,
		options: options,
		queue:   make(chan pending, options.QueueCapacity),
	}
	if options.UserRateLimit != nil {
		c.limiter = redis_rate.NewLimiter(client)
	}
	return c, nil
}

// Purchase 发起一次购买尝试。
//
// 返回值分支：
//   - (orderID, nil)：已受理，订单进入异步落库管道
//   - ErrSoldOut / ErrDuplicateOrder / ErrRateLimited：业务拒绝
//   - ErrQueueFull：过载拒绝（库存已扣减，差异由 Reconciler 上报）
//   - 其他错误：基础设施故障，准入未发生（fail-closed）
func (c *Controller) Purchase(ctx context.Context, skuID, userID int64) (int64, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}

	if c.limiter != nil {
		res, err := c.limiter.Allow(ctx, rateKey(userID), *c.options.UserRateLimit)
		if err != nil {
			return 0, fmt.Errorf("%w: rate limit: %w", ErrAdmissionFailed, err)
		}
		if res.Allowed == 0 {
			return 0, ErrRateLimited
		}
	}

	code, err := c.runner.Run(ctx, admissionScriptName,
		[]string{stockKey(skuID), boughtKey(skuID)}, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrAdmissionFailed, err)
	}

	switch code {
	case codeAdmitted:
	case codeSoldOut:
		return 0, ErrSoldOut
	case codeDuplicate:
		return 0, ErrDuplicateOrder
	default:
		return 0, fmt.Errorf("%w: unexpected admission code %d", ErrAdmissionFailed, code)
	}

	orderID, err := c.seq.Next(ctx, c.options.SequenceKey)
	if err != nil {
		// 库存已扣减但 ID 生成失败，订单无法受理，留待对账上报
		c.options.Logger.Error("xseckill: admitted but id generation failed, pending reconciliation",
			"sku", skuID, "user", userID, "error", err)
		return 0, fmt.Errorf("xseckill: order id generation: %w", err)
	}

	order := Order{
		ID:         orderID,
		UserID:     userID,
		SKUID:      skuID,
		EnqueuedAt: time.Now(),
	}
	if !c.enqueue(pending{order: order}) {
		// 容量规划信号：队列满意味着 Worker 吞吐跟不上准入速率
		c.options.Logger.Warn("xseckill: order queue full, admission lost pending reconciliation",
			"order", orderID, "sku", skuID, "user", userID, "capacity", c.options.QueueCapacity)
		return 0, ErrQueueFull
	}
	return orderID, nil
}

// enqueue 非阻塞入队，闭包 recover 吸收 Close 并发下的写关闭竞态。
func (c *Controller) enqueue(p pending) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	if c.closed.Load() {
		return false
	}
	select {
	case c.queue <- p:
		return true
	default:
		return false
	}
}

// SeedStock 初始化一个 SKU 的库存并清空其已购集合。
//
// 仅供活动上架前的运维路径使用，活动进行中调用会破坏一人一单约束。
func (c *Controller) SeedStock(ctx context.Context, skuID, stock int64) error {
	return SeedStock(ctx, c.client, skuID, stock)
}

// SeedStock 是 Controller.SeedStock 的包级形式，供运维工具直连存储使用。
func SeedStock(ctx context.Context, client redis.UniversalClient, skuID, stock int64) error {
	pipe := client.TxPipeline()
	pipe.Set(ctx, stockKey(skuID), stock, 0)
	pipe.Del(ctx, boughtKey(skuID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("xseckill: seed stock for sku %d: %w", skuID, err)
	}
	return nil
}

// Stock 返回一个 SKU 的当前剩余库存。
func (c *Controller) Stock(ctx context.Context, skuID int64) (int64, error) {
	n, err := c.client.Get(ctx, stockKey(skuID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("xseckill: read stock for sku %d: %w", skuID, err)
	}
	return n, nil
}

// Start 启动落库 Worker，重复调用只生效一次。
func (c *Controller) Start() {
	c.startOnce.Do(func() {
		c.wg.Add(1)
		go c.run()
	})
}

// Close 停止接收新请求，排空队列并等待 Worker 退出。
//
// 队列中尚未落库的订单会被处理完毕后才返回。
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		close(c.queue)
		c.wg.Wait()
	})
}

func rateKey(userID int64) string {
	return "seckill:rate:" + strconv.FormatInt(userID, 10)
}
