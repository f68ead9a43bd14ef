package handler

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/rl1809/catalog/internal/core/service"
)

func newGRPCClient(t *testing.T, svc testServices) *OrderServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterOrderServiceServer(srv, NewGRPCHandler(svc.orders))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewOrderServiceClient(conn)
}

func seedCatalog(t *testing.T, svc testServices, stock int) (service.UserDTO, service.ProductDTO) {
	t.Helper()
	ctx := context.Background()
	u, err := svc.users.Register(ctx, service.RegisterUserInput{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	p, err := svc.products.Create(ctx, service.CreateProductInput{Name: "Widget", Price: 99.99, Stock: stock})
	require.NoError(t, err)
	return u, p
}

func TestGRPC_PlaceAndTransition(t *testing.T) {
	svc := newTestServices()
	client := newGRPCClient(t, svc)
	u, p := seedCatalog(t, svc, 5)
	ctx := context.Background()

	placed, err := client.PlaceOrder(ctx, map[string]any{
		"request_id": "grpc-1", "user_id": u.ID, "product_id": p.ID, "quantity": 3,
	})
	require.NoError(t, err)
	fields := placed.GetFields()
	assert.Equal(t, "PENDING", fields["status"].GetStringValue())
	assert.Equal(t, 299.97, fields["total_price"].GetNumberValue())
	id := fields["id"].GetStringValue()

	got, err := client.GetOrder(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.GetFields()["id"].GetStringValue())

	confirmed, err := client.TransitionOrder(ctx, id, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", confirmed.GetFields()["status"].GetStringValue())

	_, err = client.TransitionOrder(ctx, id, "delivered")
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	cancelled, err := client.TransitionOrder(ctx, id, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.GetFields()["outcome"].GetStringValue())

	product, err := svc.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, product.Stock)
}

func TestGRPC_ErrorCodes(t *testing.T) {
	svc := newTestServices()
	client := newGRPCClient(t, svc)
	u, p := seedCatalog(t, svc, 1)
	ctx := context.Background()

	_, err := client.GetOrder(ctx, "missing")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.PlaceOrder(ctx, map[string]any{"user_id": u.ID, "product_id": p.ID, "quantity": 0})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.PlaceOrder(ctx, map[string]any{"user_id": u.ID, "product_id": p.ID, "quantity": 2})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	req := map[string]any{"request_id": "dup", "user_id": u.ID, "product_id": p.ID, "quantity": 1}
	_, err = client.PlaceOrder(ctx, req)
	require.NoError(t, err)
	_, err = client.PlaceOrder(ctx, req)
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = client.TransitionOrder(ctx, "whatever", "lost")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_PlaceOrderRejectsNonIntegerQuantity(t *testing.T) {
	svc := newTestServices()
	client := newGRPCClient(t, svc)
	u, p := seedCatalog(t, svc, 10)
	ctx := context.Background()

	for name, quantity := range map[string]any{
		"fraction":     2.9,
		"out of range": 1e30,
		"string":       "3",
		"missing":      nil,
	} {
		t.Run(name, func(t *testing.T) {
			req := map[string]any{"user_id": u.ID, "product_id": p.ID}
			if quantity != nil {
				req["quantity"] = quantity
			}
			_, err := client.PlaceOrder(ctx, req)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}

	product, err := svc.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, product.Stock)

	placed, err := client.PlaceOrder(ctx, map[string]any{"user_id": u.ID, "product_id": p.ID, "quantity": 2.0})
	require.NoError(t, err)
	assert.Equal(t, float64(2), placed.GetFields()["quantity"].GetNumberValue())
}
