package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/rl1809/catalog/internal/core/domain"
	"github.com/rl1809/catalog/internal/core/service"
)

const orderServiceName = "catalog.v1.OrderService"

// OrderServiceServer exchanges google.protobuf.Struct messages, so the
// service needs no generated stubs.
type OrderServiceServer interface {
	PlaceOrder(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOrder(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TransitionOrder(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var OrderServiceDesc = grpc.ServiceDesc{
	ServiceName: orderServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PlaceOrder", Handler: unaryHandler("PlaceOrder", OrderServiceServer.PlaceOrder)},
		{MethodName: "GetOrder", Handler: unaryHandler("GetOrder", OrderServiceServer.GetOrder)},
		{MethodName: "TransitionOrder", Handler: unaryHandler("TransitionOrder", OrderServiceServer.TransitionOrder)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/v1/order.proto",
}

func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&OrderServiceDesc, srv)
}

type structMethod func(OrderServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call structMethod) grpc.MethodHandler {
	fullMethod := "/" + orderServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OrderServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(OrderServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type GRPCHandler struct {
	orderService *service.OrderService
}

var _ OrderServiceServer = (*GRPCHandler)(nil)

func NewGRPCHandler(orderService *service.OrderService) *GRPCHandler {
	return &GRPCHandler{orderService: orderService}
}

func (h *GRPCHandler) PlaceOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	quantity, err := intField(req, "quantity")
	if err != nil {
		return nil, err
	}
	order, err := h.orderService.PlaceOrder(ctx, service.PlaceOrderInput{
		RequestID: stringField(req, "request_id"),
		UserID:    stringField(req, "user_id"),
		ProductID: stringField(req, "product_id"),
		Quantity:  quantity,
	})
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(order)
}

func (h *GRPCHandler) GetOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	order, err := h.orderService.Get(ctx, stringField(req, "id"))
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(order)
}

func (h *GRPCHandler) TransitionOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	order, err := h.orderService.Transition(ctx, stringField(req, "id"), stringField(req, "status"))
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(order)
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

// intField accepts only whole numbers within int32 range. Struct numbers are
// doubles, so 2.5 or 1e30 would otherwise be silently converted.
func intField(s *structpb.Struct, key string) (int, error) {
	v, ok := s.GetFields()[key].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", key)
	}
	n := v.NumberValue
	if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a whole number", key)
	}
	return int(n), nil
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, service.ErrDuplicateRequest):
		return status.Error(codes.AlreadyExists, "duplicate request")
	case errors.Is(err, service.ErrInsufficientStock):
		return status.Error(codes.FailedPrecondition, err.Error())
	}

	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return status.Error(codes.NotFound, err.Error())
	case domain.KindAlreadyExists:
		return status.Error(codes.AlreadyExists, err.Error())
	case domain.KindInvalidArgument:
		return status.Error(codes.InvalidArgument, err.Error())
	case domain.KindValidation, domain.KindInvalidTransition:
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Internal, "internal error")
}

// OrderServiceClient is the client side of OrderServiceDesc.
type OrderServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewOrderServiceClient(cc grpc.ClientConnInterface) *OrderServiceClient {
	return &OrderServiceClient{cc: cc}
}

func (c *OrderServiceClient) PlaceOrder(ctx context.Context, req map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "PlaceOrder", req, opts)
}

func (c *OrderServiceClient) GetOrder(ctx context.Context, id string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetOrder", map[string]any{"id": id}, opts)
}

func (c *OrderServiceClient) TransitionOrder(ctx context.Context, id, target string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "TransitionOrder", map[string]any{"id": id, "status": target}, opts)
}

func (c *OrderServiceClient) invoke(ctx context.Context, method string, req map[string]any, opts []grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+orderServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
