package xorder

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omeyang/flashkit/pkg/business/xseckill"
)

// ErrNilPool 表示未提供连接池。
var ErrNilPool = errors.New("xorder: nil pgx pool")

// uniqueViolation 是 PostgreSQL 唯一约束冲突的 SQLSTATE。
const uniqueViolation = "23505"

// Store 是基于 pgxpool 的订单存储，实现 xseckill.Store。
type Store struct {
	pool *pgxpool.Pool
}

// 接口符合性检查。
var _ xseckill.Store = (*Store)(nil)

// NewStore 创建订单存储。
func NewStore(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, ErrNilPool
	}
	return &Store{pool: pool}, nil
}

// Migrate 创建 orders 表（幂等）。
func (s *Store) Migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS orders (
    id          BIGINT PRIMARY KEY,
    user_id     BIGINT      NOT NULL,
    sku_id      BIGINT      NOT NULL,
    enqueued_at TIMESTAMPTZ NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (user_id, sku_id)
)`

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("xorder: migrate: %w", err)
	}
	return nil
}

// Exists 报告该用户对该 SKU 是否已有订单。
func (s *Store) Exists(ctx context.Context, userID, skuID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM orders WHERE user_id = $1 AND sku_id = $2)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, userID, skuID).Scan(&exists); err != nil {
		return false, fmt.Errorf("xorder: check order: %w", err)
	}
	return exists, nil
}

// Create 持久化一笔订单，(user_id, sku_id) 冲突返回 xseckill.ErrOrderExists。
func (s *Store) Create(ctx context.Context, order xseckill.Order) error {
	const stmt = `
INSERT INTO orders (id, user_id, sku_id, enqueued_at)
VALUES ($1, $2, $3, $4)`

	_, err := s.pool.Exec(ctx, stmt, order.ID, order.UserID, order.SKUID, order.EnqueuedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: order %d", xseckill.ErrOrderExists, order.ID)
		}
		return fmt.Errorf("xorder: create order %d: %w", order.ID, err)
	}
	return nil
}

// CountBySKU 返回该 SKU 的订单数。
func (s *Store) CountBySKU(ctx context.Context, skuID int64) (int64, error) {
	const query = `SELECT count(*) FROM orders WHERE sku_id = $1`

	var n int64
	if err := s.pool.QueryRow(ctx, query, skuID).Scan(&n); err != nil {
		return 0, fmt.Errorf("xorder: count orders for sku %d: %w", skuID, err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
