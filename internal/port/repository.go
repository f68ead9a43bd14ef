package port

import (
	"context"

	"github.com/rl1809/catalog/internal/core/domain"
)

// Repository is the persistence contract every entity store implements.
type Repository[E any, F any] interface {
	// FindByID returns nil, nil when no entity has the id
	FindByID(ctx context.Context, id string) (*E, error)

	// FindAll returns the entities matching filter, oldest first
	FindAll(ctx context.Context, filter F) ([]E, error)

	// Save inserts the entity when its id is new and replaces it otherwise
	Save(ctx context.Context, entity E) (E, error)

	// Delete is idempotent: deleting a missing id is not an error
	Delete(ctx context.Context, id string) error

	Exists(ctx context.Context, id string) (bool, error)
}

type OrderFilter struct {
	UserID    string
	ProductID string
	Status    domain.Status
}

type ProductFilter struct {
	// NameContains matches case-insensitively
	NameContains string
	InStockOnly  bool
}

type UserFilter struct {
	EmailContains string
}

type OrderRepository interface {
	Repository[domain.Order, OrderFilter]
}

type ProductRepository interface {
	Repository[domain.Product, ProductFilter]

	// ReserveStock takes quantity units out of stock in one atomic check and
	// decrement. When stock cannot cover quantity it fails with a validation
	// error and leaves the product unchanged. It returns nil, nil when no
	// product has the id.
	ReserveStock(ctx context.Context, id string, quantity int) (*domain.Product, error)

	// ReleaseStock puts quantity units back. It returns nil, nil when no
	// product has the id.
	ReleaseStock(ctx context.Context, id string, quantity int) (*domain.Product, error)
}

type UserRepository interface {
	Repository[domain.User, UserFilter]

	// FindByEmail returns nil, nil when no user has the address
	FindByEmail(ctx context.Context, email domain.Email) (*domain.User, error)
}
