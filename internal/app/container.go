package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/rl1809/catalog/internal/adapter/handler"
	"github.com/rl1809/catalog/internal/adapter/metrics"
	"github.com/rl1809/catalog/internal/adapter/storage"
	"github.com/rl1809/catalog/internal/config"
	"github.com/rl1809/catalog/internal/core/domain"
	"github.com/rl1809/catalog/internal/core/service"
	"github.com/rl1809/catalog/internal/port"
)

// Container owns the adapters chosen for the configured environment and the
// services built on them.
type Container struct {
	Users    *service.UserService
	Products *service.ProductService
	Orders   *service.OrderService
	Metrics  *metrics.ServerMetrics

	logger  *slog.Logger
	closers []func() error
}

type repositories struct {
	orders   port.OrderRepository
	products port.ProductRepository
	users    port.UserRepository
	cache    port.CacheRepository
}

func NewContainer(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...domain.Option) (*Container, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Container{logger: logger, Metrics: metrics.NewServerMetrics("api")}

	var (
		repos repositories
		err   error
	)
	if cfg.IsProduction() {
		repos, err = c.productionRepositories(ctx, cfg)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
	} else {
		repos = repositories{
			orders:   storage.NewMemoryOrderRepository(),
			products: storage.NewMemoryProductRepository(),
			users:    storage.NewMemoryUserRepository(),
			cache:    storage.NewMemoryCache(cfg.IdempotencyTTL),
		}
	}

	c.Users = service.NewUserService(repos.users, logger, opts...)
	c.Products = service.NewProductService(repos.products, logger, opts...)
	c.Orders = service.NewOrderService(repos.orders, repos.products, repos.users, repos.cache, logger, opts...)

	logger.Info("container.ready", "environment", cfg.Environment)
	return c, nil
}

func (c *Container) productionRepositories(ctx context.Context, cfg config.Config) (repositories, error) {
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return repositories{}, fmt.Errorf("open mysql: %w", err)
	}
	c.closers = append(c.closers, db.Close)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	if err := db.PingContext(ctx); err != nil {
		return repositories{}, fmt.Errorf("ping mysql: %w", err)
	}
	c.logger.Info("container.mysql_connected")

	mysqlAdapter := storage.NewMySQLAdapter(db)
	if err := mysqlAdapter.Migrate(ctx); err != nil {
		return repositories{}, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	c.closers = append(c.closers, rdb.Close)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return repositories{}, fmt.Errorf("ping redis: %w", err)
	}
	c.logger.Info("container.redis_connected", "addr", cfg.Redis.Addr)

	cache := storage.NewRedisAdapter(rdb, cfg.IdempotencyTTL)
	var products port.ProductRepository = mysqlAdapter.Products()
	if cfg.Cache.ProductTTL > 0 {
		products = storage.NewCachedProductRepository(products, cache, cfg.Cache.ProductTTL, c.logger)
	}

	return repositories{
		orders:   mysqlAdapter.Orders(),
		products: products,
		users:    mysqlAdapter.Users(),
		cache:    cache,
	}, nil
}

// HTTPHandler serves the JSON API plus /metrics.
func (c *Container) HTTPHandler() http.Handler {
	mux := http.NewServeMux()
	handler.NewHTTPHandler(c.Users, c.Products, c.Orders, c.logger).Register(mux)
	mux.Handle("GET /metrics", c.Metrics.Handler())
	return handler.LogRequests(c.logger, c.Metrics.Middleware(mux))
}

func (c *Container) GRPCServer() *grpc.Server {
	srv := grpc.NewServer(grpc.UnaryInterceptor(c.Metrics.UnaryServerInterceptor()))
	handler.RegisterOrderServiceServer(srv, handler.NewGRPCHandler(c.Orders))
	return srv
}

// Close releases connections in reverse order of acquisition.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
