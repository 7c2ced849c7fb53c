package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/xela07ax/loyalty-ordering/internal/domain"
)

const defaultRetryAfter = time.Second

// HTTPVerifier вызывает POST {baseURL}/v1/orders/verify с JSON-телом.
type HTTPVerifier struct {
	baseURL string
	client  *http.Client
}

func NewHTTPVerifier(baseURL string, client *http.Client) *HTTPVerifier {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPVerifier{baseURL: baseURL, client: client}
}

func (v *HTTPVerifier) VerifyOrder(ctx context.Context, req domain.VerifyOrderRequest) (domain.VerifiedOrder, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.VerifiedOrder{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/v1/orders/verify", bytes.NewReader(body))
	if err != nil {
		return domain.VerifiedOrder{}, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(httpReq)
	if err != nil {
		return domain.VerifiedOrder{}, fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.VerifiedOrder{}, fmt.Errorf("%w: read body: %v", ErrVerifierUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.VerifiedOrder{}, &ThrottleError{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Cause:      fmt.Errorf("status %d", resp.StatusCode),
		}
	case resp.StatusCode >= 500:
		return domain.VerifiedOrder{}, fmt.Errorf("%w: status %d", ErrVerifierUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return domain.VerifiedOrder{}, &RejectedError{StatusCode: resp.StatusCode, Message: string(bytes.TrimSpace(payload))}
	}

	var order domain.VerifiedOrder
	if err := json.Unmarshal(payload, &order); err != nil {
		return domain.VerifiedOrder{}, fmt.Errorf("%w: decode response: %v", ErrVerifierUnavailable, err)
	}
	return order, nil
}

// parseRetryAfter понимает только форму в секундах, для даты используется значение по умолчанию.
func parseRetryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}
