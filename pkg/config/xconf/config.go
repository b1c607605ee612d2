package xconf

import (
	"fmt"
	"time"
)

// Config 是 flashkit 的顶层配置。
type Config struct {
	Redis     RedisConfig     `koanf:"redis"`
	Postgres  PostgresConfig  `koanf:"postgres"`
	Seckill   SeckillConfig   `koanf:"seckill"`
	Cache     CacheConfig     `koanf:"cache"`
	Reconcile ReconcileConfig `koanf:"reconcile"`
}

// RedisConfig 描述共享存储连接。
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// PostgresConfig 描述订单库连接。
type PostgresConfig struct {
	DSN string `koanf:"dsn"`
}

// SeckillConfig 描述准入控制器参数。
type SeckillConfig struct {
	QueueCapacity  int           `koanf:"queueCapacity"`
	OrderLockLease time.Duration `koanf:"orderLockLease"`
	PersistTimeout time.Duration `koanf:"persistTimeout"`
	SequenceKey    string        `koanf:"sequenceKey"`
}

// CacheConfig 描述缓存防护参数。
type CacheConfig struct {
	TTL            time.Duration `koanf:"ttl"`
	NullTTL        time.Duration `koanf:"nullTTL"`
	MutexLease     time.Duration `koanf:"mutexLease"`
	RebuildLease   time.Duration `koanf:"rebuildLease"`
	RebuildWorkers int           `koanf:"rebuildWorkers"`
}

// ReconcileConfig 描述对账扫描参数。
type ReconcileConfig struct {
	Schedule string  `koanf:"schedule"`
	SKUs     []int64 `koanf:"skus"`
}

// DefaultConfig 返回各项均为默认值的配置，加载时作为基底被文件覆盖。
func DefaultConfig() Config {
	return Config{
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Seckill: SeckillConfig{
			QueueCapacity:  1024,
			OrderLockLease: 10 * time.Second,
			PersistTimeout: 5 * time.Second,
			SequenceKey:    "order",
		},
		Cache: CacheConfig{
			TTL:            30 * time.Minute,
			NullTTL:        2 * time.Minute,
			MutexLease:     10 * time.Second,
			RebuildLease:   10 * time.Second,
			RebuildWorkers: 10,
		},
		Reconcile: ReconcileConfig{
			Schedule: "@every 1m",
		},
	}
}

// Validate 校验配置的基本合法性。
func (c Config) Validate() error {
	if c.Redis.Addr == "" {
		return fmt.Errorf("%w: redis.addr is required", ErrInvalidConfig)
	}
	if c.Seckill.QueueCapacity <= 0 {
		return fmt.Errorf("%w: seckill.queueCapacity must be positive", ErrInvalidConfig)
	}
	if c.Seckill.OrderLockLease <= 0 {
		return fmt.Errorf("%w: seckill.orderLockLease must be positive", ErrInvalidConfig)
	}
	if c.Cache.RebuildWorkers <= 0 {
		return fmt.Errorf("%w: cache.rebuildWorkers must be positive", ErrInvalidConfig)
	}
	return nil
}
