package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rl1809/catalog/internal/core/domain"
	"github.com/rl1809/catalog/internal/port"
)

const userColumns = `id, email, name, created_at, updated_at`

type MySQLUserRepository struct {
	db *sql.DB
}

func scanUser(row rowScanner) (domain.User, error) {
	var s domain.UserSnapshot
	if err := row.Scan(&s.ID, &s.Email, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return domain.User{}, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return domain.RestoreUser(s), nil
}

func (r *MySQLUserRepository) findOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

func (r *MySQLUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *MySQLUserRepository) FindByEmail(ctx context.Context, email domain.Email) (*domain.User, error) {
	return r.findOne(ctx, "email = ?", email.String())
}

func (r *MySQLUserRepository) FindAll(ctx context.Context, f port.UserFilter) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if needle := strings.TrimSpace(f.EmailContains); needle != "" {
		query += ` WHERE email LIKE ?`
		args = append(args, "%"+strings.ToLower(needle)+"%")
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Save maps a unique-email violation to domain.AlreadyExistsError.
// ON DUPLICATE KEY UPDATE would also match uq_users_email, so insert and
// update are separate statements.
func (r *MySQLUserRepository) Save(ctx context.Context, u domain.User) (domain.User, error) {
	exists, err := r.Exists(ctx, u.ID())
	if err != nil {
		return domain.User{}, err
	}

	if exists {
		_, err = r.db.ExecContext(ctx, `
			UPDATE users SET email = ?, name = ?, updated_at = ? WHERE id = ?`,
			u.Email().String(), u.Name(), u.UpdatedAt(), u.ID(),
		)
	} else {
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?)`,
			u.ID(), u.Email().String(), u.Name(), u.CreatedAt(), u.UpdatedAt(),
		)
	}
	if isDuplicateEntry(err) {
		return domain.User{}, domain.NewAlreadyExists("user", "email", u.Email().String())
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return u, nil
}

func (r *MySQLUserRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "users", id)
}

func (r *MySQLUserRepository) Exists(ctx context.Context, id string) (bool, error) {
	return existsByID(ctx, r.db, "users", id)
}
