// Package pipeline отправляет запросы с access-токеном и прозрачно
// обновляет его после 401 с однократным повтором запроса.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"chatclient/internal/client/domain"
	"chatclient/pkg/logger"
)

// Константы для логирования.
const (
	LogUnauthorized        = "request unauthorized"
	LogReplayWithCurrent   = "replaying request with already refreshed token"
	LogReplayWithRefreshed = "replaying request with refreshed token"
	LogRetryUnauthorized   = "replayed request unauthorized again"
	LogRefreshRejected     = "refresh endpoint rejected credentials"
)

// Константы ошибок.
const (
	ErrMsgDispatch     = "send request"
	ErrMsgRewindBody   = "rewind request body"
	ErrMsgBufferBody   = "buffer request body"
	ErrMsgRefresh      = "refresh credentials"
	ErrMsgEncodeBody   = "encode request body"
	ErrMsgBuildRequest = "build request"
	ErrMsgParseBaseURL = "parse base url"
)

var ErrInvalidBaseURL = errors.New("base url must be absolute")

// Doer - HTTP-клиент с ограничением времени на вызов.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials отдает текущий access-токен.
type Credentials interface {
	AccessToken() string
}

// Refresher получает новый access-токен, объединяя параллельные обновления.
type Refresher interface {
	EnsureFreshCredential(ctx context.Context) (string, error)
}

// Publisher сообщает о завершении сессии.
type Publisher interface {
	Publish(ctx context.Context, reason domain.LogoutReason)
}

// Pipeline - конвейер аутентифицированных запросов.
type Pipeline struct {
	client      Doer
	baseURL     *url.URL
	refreshPath string
	creds       Credentials
	refresher   Refresher
	bus         Publisher
}

// New создает конвейер. refreshPath задается относительно baseURL.
func New(client Doer, baseURL, refreshPath string, creds Credentials, refresher Refresher, bus Publisher) (*Pipeline, error) {
	base, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		client:      client,
		baseURL:     base,
		refreshPath: cleanPath(base.JoinPath(refreshPath).Path),
		creds:       creds,
		refresher:   refresher,
		bus:         bus,
	}, nil
}

// ParseBaseURL разбирает базовый адрес API. Относительный адрес отклоняется.
func ParseBaseURL(raw string) (*url.URL, error) {
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgParseBaseURL, err)
	}
	if !base.IsAbs() {
		return nil, ErrInvalidBaseURL
	}
	return base, nil
}

// NewJSONRequest собирает JSON-запрос к path относительно base и переносит
// идентификатор запроса из ctx. body равный nil означает запрос без тела.
func NewJSONRequest(ctx context.Context, base *url.URL, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgEncodeBody, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, base.JoinPath(path).String(), reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgBuildRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	logger.InjectRequestID(ctx, req.Header)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// NewRequest собирает JSON-запрос относительно базового адреса конвейера.
func (p *Pipeline) NewRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	return NewJSONRequest(ctx, p.baseURL, method, path, body)
}

// Send отправляет запрос с текущим access-токеном.
//
// Ответ, отличный от 401, возвращается как есть. Ошибка транспорта возвращается
// без попытки обновления. На 401 запрос повторяется не больше одного раза:
// с токеном, который уже успел обновить другой вызов, либо с токеном от
// координатора обновления. Итоговый 401 возвращается ответом, а не ошибкой.
func (p *Pipeline) Send(ctx context.Context, req *http.Request) (*http.Response, error) {
	original, err := replayable(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	log := logger.Log(ctx).With(
		zap.String("method", original.Method),
		zap.String("path", original.URL.Path),
	)

	attempt := Attempt{Number: 1, Token: p.creds.AccessToken(), Original: original}
	for {
		resp, err := p.dispatch(ctx, attempt)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusUnauthorized {
			return resp, nil
		}

		log.Debug(ctx, LogUnauthorized, zap.Int("attempt", attempt.Number))

		if attempt.Retried() {
			log.Warn(ctx, LogRetryUnauthorized)
			return resp, nil
		}
		if p.isRefreshCall(original) {
			log.Warn(ctx, LogRefreshRejected)
			p.bus.Publish(ctx, domain.ReasonRefreshUnauthorized)
			return resp, nil
		}

		discard(resp)
		token, err := p.nextToken(ctx, attempt.Token, log)
		if err != nil {
			return nil, err
		}
		attempt = attempt.Next(token)
	}
}

// nextToken выбирает токен для повтора. Если access-токен уже сменился с момента
// отправки, обновление уже произошло и повторять его не нужно.
func (p *Pipeline) nextToken(ctx context.Context, used string, log *logger.Logger) (string, error) {
	if current := p.creds.AccessToken(); current != "" && current != used {
		log.Debug(ctx, LogReplayWithCurrent)
		return current, nil
	}

	token, err := p.refresher.EnsureFreshCredential(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrMsgRefresh, err)
	}
	log.Debug(ctx, LogReplayWithRefreshed)
	return token, nil
}

func (p *Pipeline) dispatch(ctx context.Context, attempt Attempt) (*http.Response, error) {
	req, err := attempt.Build(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgDispatch, err)
	}
	return resp, nil
}

func (p *Pipeline) isRefreshCall(req *http.Request) bool {
	return cleanPath(req.URL.Path) == p.refreshPath
}

func cleanPath(path string) string {
	return "/" + strings.Trim(path, "/")
}

// replayable гарантирует, что тело запроса можно прочитать повторно.
func replayable(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return req, nil
	}

	raw, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgBufferBody, err)
	}

	out := req.Clone(req.Context())
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(raw)), nil
	}
	out.Body, _ = out.GetBody()
	out.ContentLength = int64(len(raw))
	return out, nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
