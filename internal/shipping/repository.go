package shipping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hoamai/storefront/internal/platform/db"
)

const defaultFeeKey = "default_shipping_fee"

// Repository persists the fee table.
type Repository interface {
	// LoadTable returns the stored fees. hasDefault is false when no default
	// fee has been saved yet.
	LoadTable(ctx context.Context) (table Table, hasDefault bool, err error)
	SaveTable(ctx context.Context, table Table) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) LoadTable(ctx context.Context) (Table, bool, error) {
	rows, err := r.pool.Query(ctx, `SELECT district, fee FROM shipping_fees`)
	if err != nil {
		return Table{}, false, fmt.Errorf("shipping: load fees: %w", err)
	}
	defer rows.Close()

	table := Table{Fees: make(map[string]int64)}
	for rows.Next() {
		var (
			district string
			fee      int64
		)
		if err := rows.Scan(&district, &fee); err != nil {
			return Table{}, false, err
		}
		table.Fees[district] = fee
	}
	if err := rows.Err(); err != nil {
		return Table{}, false, err
	}

	var raw []byte
	err = r.pool.QueryRow(ctx, `SELECT value FROM shop_settings WHERE key = $1`, defaultFeeKey).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return table, false, nil
	}
	if err != nil {
		return Table{}, false, fmt.Errorf("shipping: load default fee: %w", err)
	}
	if err := json.Unmarshal(raw, &table.DefaultShippingFee); err != nil {
		return Table{}, false, fmt.Errorf("shipping: decode default fee: %w", err)
	}
	return table, true, nil
}

func (r *repository) SaveTable(ctx context.Context, table Table) error {
	raw, err := json.Marshal(table.DefaultShippingFee)
	if err != nil {
		return err
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM shipping_fees`); err != nil {
			return fmt.Errorf("shipping: clear fees: %w", err)
		}
		batch := &pgx.Batch{}
		for district, fee := range table.Fees {
			batch.Queue(`INSERT INTO shipping_fees (district, fee) VALUES ($1, $2)`, district, fee)
		}
		batch.Queue(`INSERT INTO shop_settings (key, value, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`, defaultFeeKey, raw)
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("shipping: write fees: %w", err)
		}
		return nil
	})
}
