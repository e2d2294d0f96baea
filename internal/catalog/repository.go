package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hoamai/storefront/internal/platform/db"
	"github.com/hoamai/storefront/internal/platform/httpx"
)

// Repository persists products and category settings.
type Repository interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	InsertProduct(ctx context.Context, product Product) error
	UpdateProduct(ctx context.Context, product Product) error
	DeleteProduct(ctx context.Context, id string) error
	LoadCategories(ctx context.Context) (Categories, error)
	// SaveCategories replaces the whole category record and rewrites the
	// changed products in one transaction.
	SaveCategories(ctx context.Context, change CategoryChange) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT doc FROM products ORDER BY position, created_at`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var p Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("catalog: decode product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) GetProduct(ctx context.Context, id string) (Product, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT doc FROM products WHERE id = $1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("catalog: get product: %w", err)
	}
	var p Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return Product{}, fmt.Errorf("catalog: decode product: %w", err)
	}
	return p, nil
}

func (r *repository) InsertProduct(ctx context.Context, product Product) error {
	raw, err := json.Marshal(product)
	if err != nil {
		return err
	}
	const query = `INSERT INTO products (id, position, doc, created_at, updated_at)
VALUES ($1, (SELECT COALESCE(MAX(position), 0) + 1 FROM products), $2, $3, $3)`
	if _, err := r.pool.Exec(ctx, query, product.ID, raw, product.CreatedAt); err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: product %s", httpx.ErrDuplicate, product.ID)
		}
		return fmt.Errorf("catalog: insert product: %w", err)
	}
	return nil
}

func (r *repository) UpdateProduct(ctx context.Context, product Product) error {
	return updateProduct(ctx, r.pool, product)
}

type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func updateProduct(ctx context.Context, q querier, product Product) error {
	raw, err := json.Marshal(product)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `UPDATE products SET doc = $2, updated_at = $3 WHERE id = $1`, product.ID, raw, product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("catalog: update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) DeleteProduct(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *repository) LoadCategories(ctx context.Context) (Categories, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, settings FROM category_settings`)
	if err != nil {
		return Categories{}, fmt.Errorf("catalog: load categories: %w", err)
	}
	defer rows.Close()

	record := make(map[string]CategorySettings)
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return Categories{}, err
		}
		var s CategorySettings
		if err := json.Unmarshal(raw, &s); err != nil {
			return Categories{}, fmt.Errorf("catalog: decode category %s: %w", id, err)
		}
		record[id] = s
	}
	if err := rows.Err(); err != nil {
		return Categories{}, err
	}
	return NewCategories(record), nil
}

func (r *repository) SaveCategories(ctx context.Context, change CategoryChange) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM category_settings`); err != nil {
			return fmt.Errorf("catalog: clear categories: %w", err)
		}
		batch := &pgx.Batch{}
		for id, settings := range change.Categories.Record() {
			raw, err := json.Marshal(settings)
			if err != nil {
				return err
			}
			batch.Queue(`INSERT INTO category_settings (id, settings) VALUES ($1, $2)`, id, raw)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("catalog: write categories: %w", err)
		}
		now := time.Now().UTC()
		for _, p := range change.Products {
			p.UpdatedAt = now
			if err := updateProduct(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
}
