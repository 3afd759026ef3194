package resilience

import (
	"errors"
	"fmt"
	"net/http"

	"chatclient/internal/client/config"
)

var errServerFailure = errors.New("server failure")

// Transport - http.RoundTripper под защитой Circuit Breaker. Ошибки транспорта
// и ответы 5xx считаются отказами. Остальные ответы, включая 401, успешны.
type Transport struct {
	next    http.RoundTripper
	breaker *CircuitBreaker
}

// NewTransport оборачивает next. Нулевой ErrorThreshold отключает выключатель,
// и next возвращается как есть. next равный nil означает http.DefaultTransport.
func NewTransport(name string, next http.RoundTripper, cfg config.BreakerConfig) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if cfg.ErrorThreshold <= 0 {
		return next
	}
	return &Transport{next: next, breaker: NewCircuitBreaker(name, cfg)}
}

// RoundTrip реализует http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	if !t.breaker.AllowRequest(ctx) {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, ErrCircuitOpen)
	}

	resp, err := t.next.RoundTrip(req)
	switch {
	case err != nil:
		t.breaker.RecordResult(ctx, err)
	case resp.StatusCode >= http.StatusInternalServerError:
		t.breaker.RecordResult(ctx, fmt.Errorf("%w: %s", errServerFailure, resp.Status))
	default:
		t.breaker.RecordResult(ctx, nil)
	}
	return resp, err
}

// Breaker возвращает выключатель транспорта.
func (t *Transport) Breaker() *CircuitBreaker {
	return t.breaker
}
