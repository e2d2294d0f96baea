package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hoamai/storefront/internal/platform/db"
)

// Repository persists orders and coupons.
type Repository interface {
	InsertOrder(ctx context.Context, order Order) error
	GetOrder(ctx context.Context, id string) (Order, error)
	ListOrders(ctx context.Context, status Status, limit, offset int) ([]Order, int, error)
	// UpdateStatus moves an order from one status to another. It returns
	// ErrInvalidTransition when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) error
	ListCoupons(ctx context.Context) ([]Coupon, error)
	ReplaceCoupons(ctx context.Context, coupons []Coupon) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) InsertOrder(ctx context.Context, order Order) error {
	raw, err := json.Marshal(order)
	if err != nil {
		return err
	}
	const query = `INSERT INTO orders (id, status, total_price, doc, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)`
	if _, err := r.pool.Exec(ctx, query, order.ID, string(order.Status), order.TotalPrice, raw, order.CreatedAt); err != nil {
		return fmt.Errorf("checkout: insert order: %w", err)
	}
	return nil
}

func (r *repository) GetOrder(ctx context.Context, id string) (Order, error) {
	var (
		raw    []byte
		status string
		at     time.Time
	)
	err := r.pool.QueryRow(ctx, `SELECT doc, status, updated_at FROM orders WHERE id::text = $1`, id).Scan(&raw, &status, &at)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrOrderNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("checkout: get order: %w", err)
	}
	return decodeOrder(raw, status, at)
}

func (r *repository) ListOrders(ctx context.Context, status Status, limit, offset int) ([]Order, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE ($1 = '' OR status = $1)`, string(status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("checkout: count orders: %w", err)
	}
	rows, err := r.pool.Query(ctx, `SELECT doc, status, updated_at FROM orders
WHERE ($1 = '' OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("checkout: list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0, limit)
	for rows.Next() {
		var (
			raw []byte
			st  string
			at  time.Time
		)
		if err := rows.Scan(&raw, &st, &at); err != nil {
			return nil, 0, err
		}
		o, err := decodeOrder(raw, st, at)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

// decodeOrder reads the stored document; the status columns are authoritative.
func decodeOrder(raw []byte, status string, updatedAt time.Time) (Order, error) {
	var o Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return Order{}, fmt.Errorf("checkout: decode order: %w", err)
	}
	o.Status = Status(status)
	o.UpdatedAt = updatedAt
	return o, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var current string
		err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id::text = $1 FOR UPDATE`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("checkout: lock order: %w", err)
		}
		if Status(current) != from {
			return ErrInvalidTransition
		}
		_, err = tx.Exec(ctx, `UPDATE orders SET status = $2, updated_at = $3,
doc = jsonb_set(doc, '{status}', to_jsonb($2::text)) WHERE id::text = $1`, id, string(to), at)
		if err != nil {
			return fmt.Errorf("checkout: update status: %w", err)
		}
		return nil
	})
}

func (r *repository) ListCoupons(ctx context.Context) ([]Coupon, error) {
	rows, err := r.pool.Query(ctx, `SELECT code, discount_percent FROM coupons ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("checkout: list coupons: %w", err)
	}
	defer rows.Close()

	coupons := make([]Coupon, 0)
	for rows.Next() {
		var c Coupon
		if err := rows.Scan(&c.Code, &c.DiscountPercent); err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

func (r *repository) ReplaceCoupons(ctx context.Context, coupons []Coupon) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM coupons`); err != nil {
			return fmt.Errorf("checkout: clear coupons: %w", err)
		}
		if len(coupons) == 0 {
			return nil
		}
		rows := make([][]any, 0, len(coupons))
		for _, c := range coupons {
			rows = append(rows, []any{c.Code, c.DiscountPercent})
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"coupons"}, []string{"code", "discount_percent"}, pgx.CopyFromRows(rows)); err != nil {
			if db.IsUniqueViolation(err) {
				return ErrDuplicateCoupon
			}
			return fmt.Errorf("checkout: write coupons: %w", err)
		}
		return nil
	})
}
