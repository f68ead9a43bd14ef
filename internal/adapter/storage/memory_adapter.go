package storage

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rl1809/catalog/internal/core/domain"
	"github.com/rl1809/catalog/internal/port"
)

// memoryStore keeps entities in a map. Entities are immutable values, so
// handing out copies of the stored value is safe.
type memoryStore[E any] struct {
	mu      sync.RWMutex
	items   map[string]E
	id      func(E) string
	created func(E) time.Time
}

func newMemoryStore[E any](id func(E) string, created func(E) time.Time) *memoryStore[E] {
	return &memoryStore[E]{
		items:   make(map[string]E),
		id:      id,
		created: created,
	}
}

func (s *memoryStore[E]) findByID(id string) *E {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[id]
	if !ok {
		return nil
	}
	return &e
}

func (s *memoryStore[E]) findAll(match func(E) bool) []E {
	s.mu.RLock()
	out := make([]E, 0, len(s.items))
	for _, e := range s.items {
		if match(e) {
			out = append(out, e)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b E) int {
		if c := s.created(a).Compare(s.created(b)); c != 0 {
			return c
		}
		return strings.Compare(s.id(a), s.id(b))
	})
	return out
}

func (s *memoryStore[E]) save(e E) E {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[s.id(e)] = e
	return e
}

// update replaces the entity with apply's result while holding the write
// lock. A missing id yields nil, nil and apply is not called.
func (s *memoryStore[E]) update(id string, apply func(E) (E, error)) (*E, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	next, err := apply(current)
	if err != nil {
		return nil, err
	}
	s.items[id] = next
	return &next, nil
}

func (s *memoryStore[E]) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

func (s *memoryStore[E]) exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[id]
	return ok
}

// validateQuantity runs before the product lookup so every store reports a
// bad quantity the same way, whether or not the product exists.
func validateQuantity(quantity int) error {
	if quantity <= 0 {
		return domain.NewInvalidArgument("quantity", "must be greater than 0")
	}
	return nil
}

type MemoryOrderRepository struct {
	store *memoryStore[domain.Order]
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{store: newMemoryStore(domain.Order.ID, domain.Order.CreatedAt)}
}

func (r *MemoryOrderRepository) FindByID(_ context.Context, id string) (*domain.Order, error) {
	return r.store.findByID(id), nil
}

func (r *MemoryOrderRepository) FindAll(_ context.Context, f port.OrderFilter) ([]domain.Order, error) {
	return r.store.findAll(func(o domain.Order) bool {
		return (f.UserID == "" || o.UserID() == f.UserID) &&
			(f.ProductID == "" || o.ProductID() == f.ProductID) &&
			(f.Status == "" || o.Status() == f.Status)
	}), nil
}

func (r *MemoryOrderRepository) Save(_ context.Context, o domain.Order) (domain.Order, error) {
	return r.store.save(o), nil
}

func (r *MemoryOrderRepository) Delete(_ context.Context, id string) error {
	r.store.delete(id)
	return nil
}

func (r *MemoryOrderRepository) Exists(_ context.Context, id string) (bool, error) {
	return r.store.exists(id), nil
}

type MemoryProductRepository struct {
	store *memoryStore[domain.Product]
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{store: newMemoryStore(domain.Product.ID, domain.Product.CreatedAt)}
}

func (r *MemoryProductRepository) FindByID(_ context.Context, id string) (*domain.Product, error) {
	return r.store.findByID(id), nil
}

func (r *MemoryProductRepository) FindAll(_ context.Context, f port.ProductFilter) ([]domain.Product, error) {
	needle := strings.ToLower(strings.TrimSpace(f.NameContains))
	return r.store.findAll(func(p domain.Product) bool {
		return (needle == "" || strings.Contains(strings.ToLower(p.Name()), needle)) &&
			(!f.InStockOnly || p.InStock())
	}), nil
}

func (r *MemoryProductRepository) Save(_ context.Context, p domain.Product) (domain.Product, error) {
	return r.store.save(p), nil
}

func (r *MemoryProductRepository) ReserveStock(_ context.Context, id string, quantity int) (*domain.Product, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	return r.store.update(id, func(p domain.Product) (domain.Product, error) {
		return p.ReserveStock(quantity).Get()
	})
}

func (r *MemoryProductRepository) ReleaseStock(_ context.Context, id string, quantity int) (*domain.Product, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	return r.store.update(id, func(p domain.Product) (domain.Product, error) {
		return p.ReleaseStock(quantity).Get()
	})
}

func (r *MemoryProductRepository) Delete(_ context.Context, id string) error {
	r.store.delete(id)
	return nil
}

func (r *MemoryProductRepository) Exists(_ context.Context, id string) (bool, error) {
	return r.store.exists(id), nil
}

type MemoryUserRepository struct {
	store *memoryStore[domain.User]
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{store: newMemoryStore(domain.User.ID, domain.User.CreatedAt)}
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.store.findByID(id), nil
}

func (r *MemoryUserRepository) FindAll(_ context.Context, f port.UserFilter) ([]domain.User, error) {
	needle := strings.ToLower(strings.TrimSpace(f.EmailContains))
	return r.store.findAll(func(u domain.User) bool {
		return needle == "" || strings.Contains(u.Email().String(), needle)
	}), nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email domain.Email) (*domain.User, error) {
	matches := r.store.findAll(func(u domain.User) bool { return u.Email().Equals(email) })
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

// Save rejects a second user with the same email, like the unique index of
// the SQL store.
func (r *MemoryUserRepository) Save(ctx context.Context, u domain.User) (domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, existing := range r.store.items {
		if id != u.ID() && existing.Email().Equals(u.Email()) {
			return domain.User{}, domain.NewAlreadyExists("user", "email", u.Email().String())
		}
	}
	r.store.items[u.ID()] = u
	return u, nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id string) error {
	r.store.delete(id)
	return nil
}

func (r *MemoryUserRepository) Exists(_ context.Context, id string) (bool, error) {
	return r.store.exists(id), nil
}
