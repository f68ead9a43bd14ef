package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/catalog/internal/core/domain"
	"github.com/rl1809/catalog/internal/port"
)

const productColumns = `id, name, description, price, currency, stock, created_at, updated_at`

type MySQLProductRepository struct {
	db *sql.DB
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		s        domain.ProductSnapshot
		price    decimal.Decimal
		currency string
	)
	err := row.Scan(&s.ID, &s.Name, &s.Description, &price, &currency, &s.Stock, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	s.Price = domain.RestoreMoney(price, currency)
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return domain.RestoreProduct(s), nil
}

func (r *MySQLProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (r *MySQLProductRepository) FindAll(ctx context.Context, f port.ProductFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if needle := strings.TrimSpace(f.NameContains); needle != "" {
		where = append(where, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(needle)+"%")
	}
	if f.InStockOnly {
		where = append(where, "stock > 0")
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *MySQLProductRepository) Save(ctx context.Context, p domain.Product) (domain.Product, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name), description = VALUES(description), price = VALUES(price),
			currency = VALUES(currency), stock = VALUES(stock), updated_at = VALUES(updated_at)`,
		p.ID(), p.Name(), p.Description(), p.Price().Decimal(), p.Price().Currency(),
		p.Stock(), p.CreatedAt(), p.UpdatedAt(),
	)
	if err != nil {
		return domain.Product{}, fmt.Errorf("upsert product: %w", err)
	}
	return p, nil
}

// ReserveStock decrements only while stock covers quantity, so concurrent
// reservations against one row can never take it below zero.
func (r *MySQLProductRepository) ReserveStock(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	return r.adjustStock(ctx, id, quantity, `
		UPDATE products
		SET stock = stock - ?, updated_at = ?
		WHERE id = ? AND stock >= ?`,
		quantity, time.Now().UTC(), id, quantity,
	)
}

func (r *MySQLProductRepository) ReleaseStock(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	return r.adjustStock(ctx, id, quantity, `
		UPDATE products
		SET stock = stock + ?, updated_at = ?
		WHERE id = ?`,
		quantity, time.Now().UTC(), id,
	)
}

// adjustStock runs the stock update and reads the row back in one
// transaction. No affected row means the product is missing or the guard
// rejected the change.
func (r *MySQLProductRepository) adjustStock(ctx context.Context, id string, quantity int, query string, args ...any) (*domain.Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update stock: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update stock: %w", err)
	}

	p, err := scanProduct(tx.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	if rows == 0 {
		return nil, domain.NewValidation("insufficient stock for product %s: requested %d, available %d", id, quantity, p.Stock())
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit stock update: %w", err)
	}
	return &p, nil
}

func (r *MySQLProductRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "products", id)
}

func (r *MySQLProductRepository) Exists(ctx context.Context, id string) (bool, error) {
	return existsByID(ctx, r.db, "products", id)
}
