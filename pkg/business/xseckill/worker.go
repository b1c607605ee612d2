package xseckill

import (
	"context"
	"errors"
	"strconv"

	"github.com/omeyang/flashkit/pkg/distributed/xlock"
)

// === 落库 Worker ===
//
// 单消费者排空订单队列。准入已在脚本处全局串行化，单 Worker 足以
// 承担落库职责；用户级锁与存量查重是针对带外重复提交的防御动作，
// 触发即记录异常，而非正确性仲裁。

const orderLockPrefix = "order:"

func (c *Controller) run() {
	defer c.wg.Done()

	for p := range c.queue {
		c.process(p)
	}
}

// process 处理单笔订单，任何失败都不中断 Worker 循环。
func (c *Controller) process(p pending) {
	defer func() {
		if r := recover(); r != nil {
			c.options.Logger.Error("xseckill: worker panic recovered",
				"order", p.order.ID, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), c.options.PersistTimeout)
	defer cancel()

	handle, err := c.locker.TryLock(ctx, orderLockName(p.order.UserID), c.options.OrderLockLease)
	if err != nil {
		c.retry(p, "acquire user lock", err)
		return
	}
	if handle == nil {
		// 锁被占用说明存在带外提交路径正在处理同一用户
		c.options.Logger.Warn("xseckill: user lock contended in worker",
			"order", p.order.ID, "user", p.order.UserID)
		c.retry(p, "user lock contended", nil)
		return
	}
	defer c.unlock(ctx, handle)

	exists, err := c.store.Exists(ctx, p.order.UserID, p.order.SKUID)
	if err != nil {
		c.retry(p, "check existing order", err)
		return
	}
	if exists {
		// 准入脚本应当已排除该情况，触发即上游逻辑故障
		c.options.Logger.Error("xseckill: duplicate order reached worker",
			"order", p.order.ID, "user", p.order.UserID, "sku", p.order.SKUID)
		return
	}

	if err := c.store.Create(ctx, p.order); err != nil {
		if errors.Is(err, ErrOrderExists) {
			c.options.Logger.Error("xseckill: duplicate order reached worker",
				"order", p.order.ID, "user", p.order.UserID, "sku", p.order.SKUID)
			return
		}
		c.retry(p, "persist order", err)
		return
	}

	c.options.Logger.Debug("xseckill: order persisted",
		"order", p.order.ID, "user", p.order.UserID, "sku", p.order.SKUID)
}

// retry 将瞬时失败的订单重新入队一次，再失败则记异常留待对账。
func (c *Controller) retry(p pending, stage string, err error) {
	if p.attempts == 0 {
		p.attempts++
		if c.enqueue(p) {
			c.options.Logger.Warn("xseckill: order requeued after transient failure",
				"order", p.order.ID, "stage", stage, "error", err)
			return
		}
	}
	c.options.Logger.Error("xseckill: order dropped, pending reconciliation",
		"order", p.order.ID, "user", p.order.UserID, "sku", p.order.SKUID,
		"stage", stage, "error", err)
}

// unlock 释放用户级锁，租约已过期只记录不报错。
func (c *Controller) unlock(ctx context.Context, handle *xlock.Handle) {
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), handle.Lease)
	defer cancel()

	if err := c.locker.Unlock(detached, handle); err != nil {
		if errors.Is(err, xlock.ErrLockExpired) {
			c.options.Logger.Info("xseckill: user lock already expired", "key", handle.Key)
			return
		}
		c.options.Logger.Warn("xseckill: user lock release failed", "key", handle.Key, "error", err)
	}
}

func orderLockName(userID int64) string {
	return orderLockPrefix + strconv.FormatInt(userID, 10)
}
