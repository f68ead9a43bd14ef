package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

const mysqlDuplicateEntry = 1062

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         VARCHAR(64)  NOT NULL PRIMARY KEY,
		email      VARCHAR(254) NOT NULL,
		name       VARCHAR(100) NOT NULL,
		created_at DATETIME(6)  NOT NULL,
		updated_at DATETIME(6)  NOT NULL,
		UNIQUE KEY uq_users_email (email)
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          VARCHAR(64)    NOT NULL PRIMARY KEY,
		name        VARCHAR(200)   NOT NULL,
		description TEXT           NOT NULL,
		price       DECIMAL(14, 2) NOT NULL,
		currency    CHAR(3)        NOT NULL,
		stock       INT            NOT NULL,
		created_at  DATETIME(6)    NOT NULL,
		updated_at  DATETIME(6)    NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id          VARCHAR(64)    NOT NULL PRIMARY KEY,
		user_id     VARCHAR(64)    NOT NULL,
		product_id  VARCHAR(64)    NOT NULL,
		quantity    INT            NOT NULL,
		unit_price  DECIMAL(14, 2) NOT NULL,
		total_price DECIMAL(14, 2) NOT NULL,
		currency    CHAR(3)        NOT NULL,
		status      VARCHAR(16)    NOT NULL,
		created_at  DATETIME(6)    NOT NULL,
		updated_at  DATETIME(6)    NOT NULL,
		KEY idx_orders_user (user_id),
		KEY idx_orders_product (product_id)
	)`,
}

// MySQLAdapter owns the connection pool shared by the MySQL repositories.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Migrate creates the tables when they do not exist yet.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) Orders() *MySQLOrderRepository {
	return &MySQLOrderRepository{db: m.db}
}

func (m *MySQLAdapter) Products() *MySQLProductRepository {
	return &MySQLProductRepository{db: m.db}
}

func (m *MySQLAdapter) Users() *MySQLUserRepository {
	return &MySQLUserRepository{db: m.db}
}

func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

func deleteByID(ctx context.Context, db *sql.DB, table, id string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

func existsByID(ctx context.Context, db *sql.DB, table, id string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query %s: %w", table, err)
	}
	return exists, nil
}
