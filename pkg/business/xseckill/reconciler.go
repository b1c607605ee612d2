package xseckill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

// === 对账器 ===
//
// 准入与落库之间存在已知缺口：队列满、进程崩溃或落库反复失败都会
// 留下"库存已扣、订单未持久化"的差异。Reconciler 周期性比对每个
// SKU 的已购集合基数与持久化订单数，差异通过回调上报。
// 只检测不修复：自动回补库存或补写订单都可能放大故障，修复动作
// 留给运维路径。

// Discrepancy 描述一个 SKU 上检测到的准入/落库差异。
type Discrepancy struct {
	SKUID     int64
	Admitted  int64 // 已购集合基数（准入成功数）
	Persisted int64 // 持久化订单数
}

// ReportFunc 在每次发现差异时被调用。
type ReportFunc func(d Discrepancy)

// Reconciler 周期性执行对账扫描。
type Reconciler struct {
	client redis.UniversalClient
	store  Store
	skus   []int64
	report ReportFunc

	schedule string
	timeout  time.Duration
	logger   *slog.Logger
	cron     *cron.Cron
}

// ReconcilerOption 是对账器配置选项函数。
type ReconcilerOption func(*Reconciler)

// DefaultReconcileSchedule 是默认的扫描周期。
const DefaultReconcileSchedule = "@every 1m"

// DefaultSweepTimeout 是单轮扫描的默认超时。
const DefaultSweepTimeout = 30 * time.Second

// WithSchedule 设置扫描周期，接受 cron 表达式或 @every 语法。
func WithSchedule(spec string) ReconcilerOption {
	return func(r *Reconciler) {
		if spec != "" {
			r.schedule = spec
		}
	}
}

// WithSweepTimeout 设置单轮扫描的超时。
func WithSweepTimeout(timeout time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithReconcilerLogger 设置日志记录器，nil 则丢弃日志。
func WithReconcilerLogger(logger *slog.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		r.logger = logger
	}
}

// NewReconciler 创建对账器。
//
// skus 是需要扫描的 SKU 列表；report 为 nil 时差异只写日志。
func NewReconciler(client redis.UniversalClient, store Store, skus []int64, report ReportFunc, opts ...ReconcilerOption) (*Reconciler, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if store == nil {
		return nil, ErrNilStore
	}

	r := &Reconciler{
		client:   client,
		store:    store,
		skus:     skus,
		report:   report,
		schedule: DefaultReconcileSchedule,
		timeout:  DefaultSweepTimeout,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Sweep 执行一轮对账扫描。
//
// 单个 SKU 的读取失败不中断整轮扫描，错误合并后返回。
func (r *Reconciler) Sweep(ctx context.Context) error {
	var errs []error
	for _, sku := range r.skus {
		admitted, err := r.client.SCard(ctx, boughtKey(sku)).Result()
		if err != nil {
			errs = append(errs, fmt.Errorf("xseckill: read bought set for sku %d: %w", sku, err))
			continue
		}
		persisted, err := r.store.CountBySKU(ctx, sku)
		if err != nil {
			errs = append(errs, fmt.Errorf("xseckill: count orders for sku %d: %w", sku, err))
			continue
		}
		if admitted == persisted {
			continue
		}

		r.logger.Warn("xseckill: admission/persistence discrepancy",
			"sku", sku, "admitted", admitted, "persisted", persisted)
		if r.report != nil {
			r.report(Discrepancy{SKUID: sku, Admitted: admitted, Persisted: persisted})
		}
	}
	return errors.Join(errs...)
}

// Start 按计划周期执行 Sweep。
func (r *Reconciler) Start() error {
	if r.cron != nil {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(r.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.Sweep(ctx); err != nil {
			r.logger.Warn("xseckill: reconcile sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("xseckill: invalid reconcile schedule %q: %w", r.schedule, err)
	}

	r.cron = c
	c.Start()
	return nil
}

// Stop 停止周期扫描并等待进行中的扫描结束。
func (r *Reconciler) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.cron = nil
}
