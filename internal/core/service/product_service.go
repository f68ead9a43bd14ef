package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rl1809/catalog/internal/core/domain"
	"github.com/rl1809/catalog/internal/core/result"
	"github.com/rl1809/catalog/internal/port"
)

type ProductService struct {
	products port.ProductRepository
	logger   *slog.Logger
	opts     []domain.Option
}

func NewProductService(products port.ProductRepository, logger *slog.Logger, opts ...domain.Option) *ProductService {
	return &ProductService{products: products, logger: orDiscard(logger), opts: opts}
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       float64
	Currency    string
	Stock       int
}

func (in CreateProductInput) params() domain.NewProductParams {
	return domain.NewProductParams{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Currency:    in.Currency,
		Stock:       in.Stock,
	}
}

func (s *ProductService) Create(ctx context.Context, in CreateProductInput) (ProductDTO, error) {
	p, err := domain.NewProduct(in.params(), s.opts...).Get()
	if err != nil {
		return ProductDTO{}, err
	}
	if _, err := s.products.Save(ctx, p); err != nil {
		return ProductDTO{}, fmt.Errorf("save product: %w", err)
	}
	s.logger.Info("product.created", "product_id", p.ID(), "name", p.Name(), "price", p.Price().String())
	return ToProductDTO(p), nil
}

// CreateMany validates every input before saving any of them; the first
// invalid input fails the whole batch.
func (s *ProductService) CreateMany(ctx context.Context, inputs []CreateProductInput) ([]ProductDTO, error) {
	built := make([]result.Result[domain.Product, error], 0, len(inputs))
	for i, in := range inputs {
		r := domain.NewProduct(in.params(), s.opts...)
		built = append(built, result.MapError(r, func(err error) error {
			return fmt.Errorf("product %d: %w", i, err)
		}))
	}

	products, err := result.Combine(built...).Get()
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if _, err := s.products.Save(ctx, p); err != nil {
			return nil, fmt.Errorf("save product: %w", err)
		}
	}
	s.logger.Info("product.batch_created", "count", len(products))
	return mapSlice(products, ToProductDTO), nil
}

func (s *ProductService) Get(ctx context.Context, id string) (ProductDTO, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return ProductDTO{}, err
	}
	return ToProductDTO(p), nil
}

func (s *ProductService) List(ctx context.Context, filter port.ProductFilter) ([]ProductDTO, error) {
	products, err := s.products.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return mapSlice(products, ToProductDTO), nil
}

// UpdateProductInput is a patch: nil fields are left unchanged.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
}

func (s *ProductService) Update(ctx context.Context, id string, in UpdateProductInput) (ProductDTO, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return ProductDTO{}, err
	}

	r := result.Ok[domain.Product, error](current)
	if in.Name != nil {
		r = result.FlatMap(r, func(p domain.Product) result.Result[domain.Product, error] { return p.UpdateName(*in.Name) })
	}
	if in.Description != nil {
		r = result.FlatMap(r, func(p domain.Product) result.Result[domain.Product, error] { return p.UpdateDescription(*in.Description) })
	}
	if in.Price != nil {
		r = result.FlatMap(r, func(p domain.Product) result.Result[domain.Product, error] { return p.UpdatePrice(*in.Price) })
	}
	if in.Stock != nil {
		r = result.FlatMap(r, func(p domain.Product) result.Result[domain.Product, error] { return p.UpdateStock(*in.Stock) })
	}

	updated, err := r.Get()
	if err != nil {
		return ProductDTO{}, err
	}
	if _, err := s.products.Save(ctx, updated); err != nil {
		return ProductDTO{}, fmt.Errorf("save product: %w", err)
	}
	s.logger.Info("product.updated", "product_id", id)
	return ToProductDTO(updated), nil
}

// Delete reports NotFound for an unknown id.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	exists, err := s.products.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("load product: %w", err)
	}
	if !exists {
		return domain.NewNotFound("product", id)
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.logger.Info("product.deleted", "product_id", id)
	return nil
}

func (s *ProductService) load(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("load product: %w", err)
	}
	if p == nil {
		return domain.Product{}, domain.NewNotFound("product", id)
	}
	return *p, nil
}
