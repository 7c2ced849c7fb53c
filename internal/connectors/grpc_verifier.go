package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xela07ax/loyalty-ordering/internal/domain"
)

const verifyOrderMethod = "/loyalty.orders.v1.OrderVerifier/VerifyOrder"

// GRPCVerifier вызывает сервис заказов по gRPC. Запрос и ответ передаются как google.protobuf.Struct,
// поэтому сгенерированный клиент не нужен.
type GRPCVerifier struct {
	conn grpc.ClientConnInterface
}

// NewGRPCVerifier создает экземпляр адаптера
func NewGRPCVerifier(conn grpc.ClientConnInterface) *GRPCVerifier {
	return &GRPCVerifier{conn: conn}
}

func (a *GRPCVerifier) VerifyOrder(ctx context.Context, req domain.VerifyOrderRequest) (domain.VerifiedOrder, error) {
	// 1. Конвертируем запрос в Protobuf Struct через JSON
	in, err := toStruct(req)
	if err != nil {
		return domain.VerifiedOrder{}, err
	}

	// 2. Защитный таймаут на уровне вызова
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	out := &structpb.Struct{}
	if err := a.conn.Invoke(ctx, verifyOrderMethod, in, out); err != nil {
		return domain.VerifiedOrder{}, mapStatus(err)
	}

	// 3. Обратно в доменный тип
	data, err := json.Marshal(out.AsMap())
	if err != nil {
		return domain.VerifiedOrder{}, fmt.Errorf("failed to marshal result: %w", err)
	}
	var order domain.VerifiedOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return domain.VerifiedOrder{}, fmt.Errorf("%w: decode response: %v", ErrVerifierUnavailable, err)
	}
	return order, nil
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create proto struct: %w", err)
	}
	return s, nil
}

func mapStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}
	switch st.Code() {
	case codes.ResourceExhausted:
		return &ThrottleError{RetryAfter: defaultRetryAfter, Cause: err}
	case codes.InvalidArgument, codes.NotFound, codes.FailedPrecondition, codes.PermissionDenied:
		return &RejectedError{StatusCode: int(st.Code()), Message: st.Message()}
	default:
		return fmt.Errorf("%w: %s", ErrVerifierUnavailable, st.Message())
	}
}
