package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rl1809/catalog/internal/core/result"
)

const maxProductNameLength = 200

// Product is an immutable catalog item with a price and a stock level.
type Product struct {
	id          string
	name        string
	description string
	price       Money
	stock       int
	createdAt   time.Time
	updatedAt   time.Time
	clock       func() time.Time
}

type NewProductParams struct {
	Name        string
	Description string
	Price       float64
	Currency    string
	Stock       int
}

type ProductSnapshot struct {
	ID          string
	Name        string
	Description string
	Price       Money
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewProduct(p NewProductParams, opts ...Option) result.Result[Product, error] {
	name, err := validateProductName(p.Name)
	if err != nil {
		return result.Fail[Product](err)
	}
	currency := p.Currency
	if strings.TrimSpace(currency) == "" {
		currency = DefaultCurrency
	}
	price, err := NewMoney(p.Price, currency).Get()
	if err != nil {
		return result.Fail[Product](err)
	}
	if err := validateStock(p.Stock); err != nil {
		return result.Fail[Product](err)
	}

	f := newFactory(opts)
	now := f.timestamp()
	return result.Ok[Product, error](Product{
		id:          f.newID(),
		name:        name,
		description: strings.TrimSpace(p.Description),
		price:       price,
		stock:       p.Stock,
		createdAt:   now,
		updatedAt:   now,
		clock:       f.now,
	})
}

// RestoreProduct rebuilds a product from trusted storage without validation.
func RestoreProduct(s ProductSnapshot, opts ...Option) Product {
	f := newFactory(opts)
	return Product{
		id:          s.ID,
		name:        s.Name,
		description: s.Description,
		price:       s.Price,
		stock:       s.Stock,
		createdAt:   s.CreatedAt,
		updatedAt:   s.UpdatedAt,
		clock:       f.now,
	}
}

func (p Product) ID() string { return p.id }
func (p Product) Name() string { return p.name }
func (p Product) Description() string { return p.description }
func (p Product) Price() Money { return p.price }
func (p Product) Stock() int { return p.stock }
func (p Product) CreatedAt() time.Time { return p.createdAt }
func (p Product) UpdatedAt() time.Time { return p.updatedAt }
func (p Product) InStock() bool { return p.stock > 0 }
func (p Product) Equals(other Product) bool { return p.id == other.id }

func (p Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:          p.id,
		Name:        p.name,
		Description: p.description,
		Price:       p.price,
		Stock:       p.stock,
		CreatedAt:   p.createdAt,
		UpdatedAt:   p.updatedAt,
	}
}

func (p Product) UpdateName(name string) result.Result[Product, error] {
	n, err := validateProductName(name)
	if err != nil {
		return result.Fail[Product](err)
	}
	next := p.touched()
	next.name = n
	return result.Ok[Product, error](next)
}

func (p Product) UpdateDescription(description string) result.Result[Product, error] {
	next := p.touched()
	next.description = strings.TrimSpace(description)
	return result.Ok[Product, error](next)
}

// UpdatePrice keeps the product's currency.
func (p Product) UpdatePrice(amount float64) result.Result[Product, error] {
	price, err := NewMoney(amount, p.price.Currency()).Get()
	if err != nil {
		return result.Fail[Product](err)
	}
	next := p.touched()
	next.price = price
	return result.Ok[Product, error](next)
}

func (p Product) UpdateStock(stock int) result.Result[Product, error] {
	if err := validateStock(stock); err != nil {
		return result.Fail[Product](err)
	}
	next := p.touched()
	next.stock = stock
	return result.Ok[Product, error](next)
}

// ReserveStock takes quantity units out of stock for an order.
func (p Product) ReserveStock(quantity int) result.Result[Product, error] {
	if quantity <= 0 {
		return result.Fail[Product](error(NewInvalidArgument("quantity", "must be greater than 0")))
	}
	if quantity > p.stock {
		return result.Fail[Product](error(NewValidation("insufficient stock for product %s: requested %d, available %d", p.id, quantity, p.stock)))
	}
	return p.UpdateStock(p.stock - quantity)
}

// ReleaseStock returns quantity units to stock, e.g. when an order is cancelled.
func (p Product) ReleaseStock(quantity int) result.Result[Product, error] {
	if quantity <= 0 {
		return result.Fail[Product](error(NewInvalidArgument("quantity", "must be greater than 0")))
	}
	return p.UpdateStock(p.stock + quantity)
}

func (p Product) touched() Product {
	next := p
	next.updatedAt = advance(p.clock, p.updatedAt)
	return next
}

func validateProductName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", NewInvalidArgument("name", "cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxProductNameLength {
		return "", NewInvalidArgument("name", "cannot exceed 200 characters")
	}
	return name, nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return NewInvalidArgument("stock", "cannot be negative")
	}
	return nil
}
