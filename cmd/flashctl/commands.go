package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	"github.com/omeyang/flashkit/pkg/business/xseckill"
	"github.com/omeyang/flashkit/pkg/config/xconf"
	"github.com/omeyang/flashkit/pkg/distributed/xlock"
	"github.com/omeyang/flashkit/pkg/storage/xcache"
	"github.com/omeyang/flashkit/pkg/storage/xorder"
)

// exitError 表示需要非零退出码但已完成输出的场景。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createSeedStockCommand(),
		createWarmCacheCommand(),
		createAuditCommand(),
	}
}

// createSeedStockCommand 创建库存初始化命令。
func createSeedStockCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed-stock",
		Usage: "初始化 SKU 库存并清空已购集合",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "sku", Usage: "SKU ID", Required: true},
			&cli.Int64Flag{Name: "stock", Usage: "库存数量", Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			rdb := newRedis(cfg)
			defer rdb.Close()

			ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
			defer cancel()

			sku := cmd.Int64("sku")
			stock := cmd.Int64("stock")
			if err := xseckill.SeedStock(ctx, rdb, sku, stock); err != nil {
				return err
			}
			fmt.Printf("sku %d 库存已初始化为 %d\n", sku, stock)
			return nil
		},
	}
}

// warmEntry 是预热文件中的一条记录。
type warmEntry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// createWarmCacheCommand 创建缓存预热命令。
//
// 输入文件是 JSON 数组: [{"key": "cache:product:1", "value": {...}}, ...]，
// 每条记录以逻辑过期信封写入，供极热 key 策略读取。
func createWarmCacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "warm-cache",
		Usage: "从 JSON 文件预热逻辑过期缓存",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Usage: "预热数据文件", Required: true},
			&cli.DurationFlag{Name: "ttl", Usage: "逻辑过期时长，缺省取配置 cache.ttl"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(cmd.String("file"))
			if err != nil {
				return fmt.Errorf("读取预热文件: %w", err)
			}
			var entries []warmEntry
			if err := json.Unmarshal(data, &entries); err != nil {
				return fmt.Errorf("解析预热文件: %w", err)
			}

			rdb := newRedis(cfg)
			defer rdb.Close()

			locker, err := xlock.NewRedisLocker(rdb)
			if err != nil {
				return err
			}
			cache, err := xcache.New(rdb, locker)
			if err != nil {
				return err
			}
			defer cache.Close()

			ttl := cmd.Duration("ttl")
			if ttl <= 0 {
				ttl = cfg.Cache.TTL
			}

			ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
			defer cancel()

			for _, e := range entries {
				if e.Key == "" {
					return fmt.Errorf("预热记录缺少 key")
				}
				if err := cache.SetWithLogicalExpire(ctx, e.Key, e.Value, ttl); err != nil {
					return fmt.Errorf("预热 %s: %w", e.Key, err)
				}
			}
			fmt.Printf("已预热 %d 个 key（逻辑过期 %s）\n", len(entries), ttl)
			return nil
		},
	}
}

// createAuditCommand 创建一次性对账命令。
func createAuditCommand() *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "执行一轮准入/落库对账扫描",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(cfg.Reconcile.SKUs) == 0 {
				return fmt.Errorf("配置 reconcile.skus 为空，无可扫描的 SKU")
			}

			rdb := newRedis(cfg)
			defer rdb.Close()

			ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
			defer cancel()

			pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
			if err != nil {
				return fmt.Errorf("连接订单库: %w", err)
			}
			defer pool.Close()

			store, err := xorder.NewStore(pool)
			if err != nil {
				return err
			}

			var discrepancies int
			r, err := xseckill.NewReconciler(rdb, store, cfg.Reconcile.SKUs,
				func(d xseckill.Discrepancy) {
					discrepancies++
					fmt.Printf("sku %d: 准入 %d 笔，落库 %d 笔，缺口 %d\n",
						d.SKUID, d.Admitted, d.Persisted, d.Admitted-d.Persisted)
				})
			if err != nil {
				return err
			}

			if err := r.Sweep(ctx); err != nil {
				return err
			}
			if discrepancies > 0 {
				fmt.Printf("发现 %d 个 SKU 存在差异\n", discrepancies)
				return &exitError{code: 1}
			}
			fmt.Println("未发现差异")
			return nil
		},
	}
}

// loadConfig 读取全局 --config 指定的配置文件。
func loadConfig(cmd *cli.Command) (xconf.Config, error) {
	loader, err := xconf.Load(cmd.String("config"))
	if err != nil {
		return xconf.Config{}, err
	}
	return loader.Config(), nil
}

func newRedis(cfg xconf.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
