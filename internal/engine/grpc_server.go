package engine

import (
	"context"
	"encoding/json"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xela07ax/loyalty-ordering/internal/domain"
)

const dealEngineServiceName = "loyalty.ordering.v1.DealEngine"

// DealEngineServer - gRPC-периметр движка сделок. Сообщения - google.protobuf.Struct
// с той же JSON-схемой, что у HTTP API.
type DealEngineServer interface {
	Evaluate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Apply(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var dealEngineServiceDesc = grpc.ServiceDesc{
	ServiceName: dealEngineServiceName,
	HandlerType: (*DealEngineServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: unaryHandler("Evaluate", DealEngineServer.Evaluate)},
		{MethodName: "Apply", Handler: unaryHandler("Apply", DealEngineServer.Apply)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "loyalty/ordering/v1/deal_engine.proto",
}

func RegisterDealEngineServer(s grpc.ServiceRegistrar, srv DealEngineServer) {
	s.RegisterService(&dealEngineServiceDesc, srv)
}

func unaryHandler(
	method string,
	call func(DealEngineServer, context.Context, *structpb.Struct) (*structpb.Struct, error),
) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DealEngineServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + dealEngineServiceName + "/" + method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(DealEngineServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type grpcEvaluateRequest struct {
	RestaurantID string      `json:"restaurant_id"`
	PolicyID     string      `json:"policy_id,omitempty"`
	UserID       string      `json:"user_id"`
	Cart         domain.Cart `json:"cart"`
}

// GRPCDealServer вызывает тот же пайплайн, что и HTTP.
type GRPCDealServer struct {
	core *OrderingCore
}

func NewGRPCDealServer(core *OrderingCore) *GRPCDealServer {
	return &GRPCDealServer{core: core}
}

func (s *GRPCDealServer) Evaluate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req grpcEvaluateRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	result, err := s.core.EvaluateCart(ctx, req.RestaurantID, req.UserID, req.Cart)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(result)
}

func (s *GRPCDealServer) Apply(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req grpcEvaluateRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, err
	}
	effect, err := s.core.ApplyPolicy(ctx, req.RestaurantID, req.UserID, req.PolicyID, req.Cart)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(effect)
}

func fromStruct(in *structpb.Struct, v any) error {
	data, err := json.Marshal(in.AsMap())
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid payload: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid payload: %v", err)
	}
	return nil
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}
	return out, nil
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, domain.ErrRestaurantNotFound), errors.Is(err, domain.ErrPolicyNotFound):
		return status.Error(codes.NotFound, err.Error())
	case isPricingError(err), errors.Is(err, domain.ErrInvalidQuantity):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
