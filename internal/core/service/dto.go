package service

import (
	"time"

	"github.com/rl1809/catalog/internal/core/domain"
)

// isoLayout matches JavaScript's Date.prototype.toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

type OrderDTO struct {
	ID                 string   `json:"id"`
	UserID             string   `json:"user_id"`
	ProductID          string   `json:"product_id"`
	Quantity           int      `json:"quantity"`
	UnitPrice          float64  `json:"unit_price"`
	TotalPrice         float64  `json:"total_price"`
	Currency           string   `json:"currency"`
	Status             string   `json:"status"`
	Outcome            string   `json:"outcome"`
	AllowedTransitions []string `json:"allowed_transitions"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

func ToOrderDTO(o domain.Order) OrderDTO {
	allowed := make([]string, 0, 2)
	for _, s := range o.AllowedTransitions() {
		allowed = append(allowed, s.String())
	}
	return OrderDTO{
		ID:                 o.ID(),
		UserID:             o.UserID(),
		ProductID:          o.ProductID(),
		Quantity:           o.Quantity(),
		UnitPrice:          o.UnitPrice().Amount(),
		TotalPrice:         o.TotalPrice().Amount(),
		Currency:           o.TotalPrice().Currency(),
		Status:             o.Status().String(),
		Outcome:            o.Outcome().String(),
		AllowedTransitions: allowed,
		CreatedAt:          formatTime(o.CreatedAt()),
		UpdatedAt:          formatTime(o.UpdatedAt()),
	}
}

type ProductDTO struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Stock       int     `json:"stock"`
	InStock     bool    `json:"in_stock"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func ToProductDTO(p domain.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID(),
		Name:        p.Name(),
		Description: p.Description(),
		Price:       p.Price().Amount(),
		Currency:    p.Price().Currency(),
		Stock:       p.Stock(),
		InStock:     p.InStock(),
		CreatedAt:   formatTime(p.CreatedAt()),
		UpdatedAt:   formatTime(p.UpdatedAt()),
	}
}

type UserDTO struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func ToUserDTO(u domain.User) UserDTO {
	return UserDTO{
		ID:        u.ID(),
		Email:     u.Email().String(),
		Name:      u.Name(),
		CreatedAt: formatTime(u.CreatedAt()),
		UpdatedAt: formatTime(u.UpdatedAt()),
	}
}

func mapSlice[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}
