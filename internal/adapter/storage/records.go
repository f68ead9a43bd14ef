package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/catalog/internal/core/domain"
)

// productRecord is the serialized form of a product in the cache.
type productRecord struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toProductRecord(p domain.Product) productRecord {
	return productRecord{
		ID:          p.ID(),
		Name:        p.Name(),
		Description: p.Description(),
		Price:       p.Price().Decimal(),
		Currency:    p.Price().Currency(),
		Stock:       p.Stock(),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
}

func (r productRecord) toDomain() domain.Product {
	return domain.RestoreProduct(domain.ProductSnapshot{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       domain.RestoreMoney(r.Price, r.Currency),
		Stock:       r.Stock,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	})
}
