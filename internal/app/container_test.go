package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/catalog/internal/config"
	"github.com/rl1809/catalog/internal/core/service"
)

func postJSON(t *testing.T, srv *httptest.Server, path string, body any, out any) int {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := srv.Client().Post(srv.URL+path, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

func TestContainer_DevelopmentServesAPIAndMetrics(t *testing.T) {
	c, err := NewContainer(context.Background(), config.Default(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, c.Close()) })

	srv := httptest.NewServer(c.HTTPHandler())
	t.Cleanup(srv.Close)

	var user envelope[service.UserDTO]
	require.Equal(t, http.StatusCreated, postJSON(t, srv, "/api/users", map[string]any{"name": "Ada", "email": "ada@example.com"}, &user))
	var product envelope[service.ProductDTO]
	require.Equal(t, http.StatusCreated, postJSON(t, srv, "/api/products", map[string]any{"name": "Widget", "price": 99.99, "stock": 3}, &product))

	var order envelope[service.OrderDTO]
	code := postJSON(t, srv, "/api/orders", map[string]any{
		"request_id": "it-1", "user_id": user.Data.ID, "product_id": product.Data.ID, "quantity": 3,
	}, &order)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, 299.97, order.Data.TotalPrice)

	got, err := c.Products.Get(context.Background(), product.Data.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
	assert.False(t, got.InStock)

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `catalog_api_requests_total{handler="POST /api/orders",status="201",transport="http"} 1`)
}

func TestContainer_GRPCServerRegistersOrderService(t *testing.T) {
	c, err := NewContainer(context.Background(), config.Default(), nil)
	require.NoError(t, err)

	srv := c.GRPCServer()
	info := srv.GetServiceInfo()
	require.Contains(t, info, "catalog.v1.OrderService")

	var methods []string
	for _, m := range info["catalog.v1.OrderService"].Methods {
		methods = append(methods, m.Name)
	}
	assert.ElementsMatch(t, []string{"PlaceOrder", "GetOrder", "TransitionOrder"}, methods)
}

func TestContainer_ProductionUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.Environment = config.EnvProduction
	cfg.MySQL.DSN = "root:root@tcp(127.0.0.1:1)/catalog?parseTime=true&timeout=200ms"

	_, err := NewContainer(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "ping mysql")
}

func TestContainer_ProductionFlow(t *testing.T) {
	cfg := config.Default()
	cfg.Environment = config.EnvProduction
	if dsn := os.Getenv("MYSQL_DSN"); dsn != "" {
		cfg.MySQL.DSN = dsn
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}

	ctx := context.Background()
	c, err := NewContainer(ctx, cfg, nil)
	if err != nil {
		t.Skipf("MySQL or Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	user, err := c.Users.Register(ctx, service.RegisterUserInput{Name: "Integration", Email: "it-" + uuid.NewString() + "@example.com"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Users.Delete(ctx, user.ID) })
	product, err := c.Products.Create(ctx, service.CreateProductInput{Name: "Integration item", Price: 10, Stock: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Products.Delete(ctx, product.ID) })

	order, err := c.Orders.PlaceOrder(ctx, service.PlaceOrderInput{UserID: user.ID, ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	_, err = c.Orders.PlaceOrder(ctx, service.PlaceOrderInput{UserID: user.ID, ProductID: product.ID, Quantity: 1})
	assert.ErrorIs(t, err, service.ErrInsufficientStock)

	cancelled, err := c.Orders.Cancel(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)

	restocked, err := c.Products.Get(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, restocked.Stock)
}
