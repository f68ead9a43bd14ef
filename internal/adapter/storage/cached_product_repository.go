package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rl1809/catalog/internal/core/domain"
	"github.com/rl1809/catalog/internal/port"
)

const productCacheKeyPrefix = "product:"

// CachedProductRepository is a cache-aside decorator over a product store.
// Writes go to the store first and then invalidate the cached entry.
type CachedProductRepository struct {
	port.ProductRepository

	cache  port.CacheRepository
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

func NewCachedProductRepository(store port.ProductRepository, cache port.CacheRepository, ttl time.Duration, logger *slog.Logger) *CachedProductRepository {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachedProductRepository{
		ProductRepository: store,
		cache:             cache,
		ttl:               ttl,
		logger:            logger,
	}
}

func (r *CachedProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	key := productCacheKeyPrefix + id
	if p, ok := r.fromCache(ctx, key); ok {
		return p, nil
	}

	// Concurrent misses for one id share a single store read. The read must
	// not end when the caller that started it goes away.
	shared := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(key, func() (any, error) {
		if p, ok := r.fromCache(shared, key); ok {
			return p, nil
		}
		p, err := r.ProductRepository.FindByID(shared, id)
		if err != nil || p == nil {
			return p, err
		}
		r.toCache(shared, key, *p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

func (r *CachedProductRepository) Save(ctx context.Context, p domain.Product) (domain.Product, error) {
	saved, err := r.ProductRepository.Save(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}
	r.invalidate(ctx, saved.ID())
	return saved, nil
}

// ReserveStock never consults the cache: the store's conditional update
// decides, and the entry is dropped whatever the outcome.
func (r *CachedProductRepository) ReserveStock(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	p, err := r.ProductRepository.ReserveStock(ctx, id, quantity)
	r.invalidate(ctx, id)
	return p, err
}

func (r *CachedProductRepository) ReleaseStock(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	p, err := r.ProductRepository.ReleaseStock(ctx, id, quantity)
	r.invalidate(ctx, id)
	return p, err
}

func (r *CachedProductRepository) Delete(ctx context.Context, id string) error {
	if err := r.ProductRepository.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// Cache failures degrade to a store read; they are logged, not returned.
func (r *CachedProductRepository) fromCache(ctx context.Context, key string) (*domain.Product, bool) {
	b, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn("product_cache.get_failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var rec productRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		r.logger.Warn("product_cache.decode_failed", "key", key, "error", err)
		return nil, false
	}
	p := rec.toDomain()
	return &p, true
}

func (r *CachedProductRepository) toCache(ctx context.Context, key string, p domain.Product) {
	b, err := json.Marshal(toProductRecord(p))
	if err != nil {
		r.logger.Warn("product_cache.encode_failed", "key", key, "error", err)
		return
	}
	if err := r.cache.Set(ctx, key, b, r.ttl); err != nil {
		r.logger.Warn("product_cache.set_failed", "key", key, "error", err)
	}
}

func (r *CachedProductRepository) invalidate(ctx context.Context, id string) {
	if err := r.cache.Delete(ctx, productCacheKeyPrefix+id); err != nil {
		r.logger.Warn("product_cache.invalidate_failed", "id", id, "error", fmt.Errorf("delete cache entry: %w", err))
	}
}
