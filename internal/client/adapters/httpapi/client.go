// Package httpapi реализует порты API поверх HTTP/JSON.
package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"chatclient/internal/client/app/pipeline"
	"chatclient/internal/client/config"
	"chatclient/internal/client/domain"
)

// Константы ошибок.
const (
	ErrMsgSendRequest   = "send request"
	ErrMsgDecodeBody    = "decode response body"
	maxErrorBodyPreview = 4 << 10
)

var ErrInvalidBaseURL = pipeline.ErrInvalidBaseURL

// Doer - HTTP-клиент.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewHTTPClient создает клиент с общим таймаутом на вызов.
// transport равный nil означает http.DefaultTransport.
func NewHTTPClient(cfg *config.APIConfig, transport http.RoundTripper) *http.Client {
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: transport,
	}
}

// decodeResponse закрывает тело ответа. Ответ 2xx разбирается в out,
// остальные превращаются в *domain.APIError.
func decodeResponse(resp *http.Response, out any) error {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return apiError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgDecodeBody, err)
	}
	return nil
}

func apiError(resp *http.Response) *domain.APIError {
	apiErr := &domain.APIError{Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyPreview))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var body domain.APIError
	if json.Unmarshal(raw, &body) == nil && body.Message != "" {
		apiErr.Message = body.Message
		apiErr.Timestamp = body.Timestamp
	}
	return apiErr
}
