package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rl1809/catalog/internal/core/domain"
	"github.com/rl1809/catalog/internal/port"
)

const orderColumns = `id, user_id, product_id, quantity, unit_price, total_price, currency, status, created_at, updated_at`

type MySQLOrderRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		s               domain.OrderSnapshot
		unit, total     decimal.Decimal
		currency, state string
	)
	err := row.Scan(&s.ID, &s.UserID, &s.ProductID, &s.Quantity, &unit, &total, &currency, &state, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	s.UnitPrice = domain.RestoreMoney(unit, currency)
	s.TotalPrice = domain.RestoreMoney(total, currency)
	s.Status = domain.Status(state)
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return domain.RestoreOrder(s), nil
}

func (r *MySQLOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return &o, nil
}

func (r *MySQLOrderRepository) FindAll(ctx context.Context, f port.OrderFilter) ([]domain.Order, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.ProductID != "" {
		where = append(where, "product_id = ?")
		args = append(args, f.ProductID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *MySQLOrderRepository) Save(ctx context.Context, o domain.Order) (domain.Order, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE status = VALUES(status), updated_at = VALUES(updated_at)`,
		o.ID(), o.UserID(), o.ProductID(), o.Quantity(),
		o.UnitPrice().Decimal(), o.TotalPrice().Decimal(), o.TotalPrice().Currency(),
		string(o.Status()), o.CreatedAt(), o.UpdatedAt(),
	)
	if err != nil {
		return domain.Order{}, fmt.Errorf("upsert order: %w", err)
	}
	return o, nil
}

func (r *MySQLOrderRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "orders", id)
}

func (r *MySQLOrderRepository) Exists(ctx context.Context, id string) (bool, error) {
	return existsByID(ctx, r.db, "orders", id)
}
