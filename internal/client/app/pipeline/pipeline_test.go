package pipeline_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"chatclient/internal/client/adapters/codec"
	"chatclient/internal/client/adapters/httpapi"
	"chatclient/internal/client/adapters/storage"
	"chatclient/internal/client/apitest"
	"chatclient/internal/client/app/events"
	"chatclient/internal/client/app/listener"
	"chatclient/internal/client/app/pipeline"
	"chatclient/internal/client/app/refresh"
	"chatclient/internal/client/app/session"
	"chatclient/internal/client/domain"
	"chatclient/pkg/logger"
)

type navigator struct {
	mu      sync.Mutex
	reasons []domain.LogoutReason
}

func (n *navigator) ToLogin(_ context.Context, reason domain.LogoutReason) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reasons = append(n.reasons, reason)
}

func (n *navigator) Reasons() []domain.LogoutReason {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.LogoutReason(nil), n.reasons...)
}

type harness struct {
	server   *apitest.Server
	store    *session.Store
	nav      *navigator
	coord    *refresh.Coordinator
	pipeline *pipeline.Pipeline
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	server := apitest.NewServer(t)
	store := session.NewStore(storage.NewMemoryStorage(), codec.NewJWTCodec())
	bus := events.NewBus()
	nav := &navigator{}
	detach := listener.NewLogoutListener(store, nav).Attach(bus)
	t.Cleanup(detach)

	auth, err := httpapi.NewAuthAPI(server.Client(), server.URL, httpapi.PathRefresh)
	require.NoError(t, err)

	coord := refresh.NewCoordinator(auth, store, bus)
	p, err := pipeline.New(server.Client(), server.URL, httpapi.PathRefresh, store, coord, bus)
	require.NoError(t, err)

	return &harness{server: server, store: store, nav: nav, coord: coord, pipeline: p}
}

func (h *harness) login(t *testing.T) domain.TokenPair {
	t.Helper()

	pair := h.server.Issue(t)
	require.NoError(t, h.store.SetTokens(context.Background(), pair))
	return pair
}

func (h *harness) get(t *testing.T, path string) (*http.Response, error) {
	t.Helper()

	req, err := h.pipeline.NewRequest(context.Background(), http.MethodGet, path, nil)
	require.NoError(t, err)
	return h.pipeline.Send(context.Background(), req)
}

func closeBody(t *testing.T, resp *http.Response) {
	t.Helper()
	require.NoError(t, resp.Body.Close())
}

func TestPipeline_AttachesBearerToken(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	resp, err := h.get(t, httpapi.PathChatHistory)

	require.NoError(t, err)
	defer closeBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, h.server.RefreshCalls())
}

func TestPipeline_RefreshesAndReplaysOnce(t *testing.T) {
	h := newHarness(t)
	first := h.login(t)
	h.server.ExpireAccess()

	resp, err := h.get(t, httpapi.PathChatHistory)

	require.NoError(t, err)
	defer closeBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, h.server.RefreshCalls())
	assert.Equal(t, 2, h.server.Hits(httpapi.PathChatHistory))

	current := h.server.Current()
	assert.Equal(t, current.AccessToken, h.store.AccessToken())
	assert.Equal(t, current.RefreshToken, h.store.RefreshToken())
	assert.NotEqual(t, first.RefreshToken, h.store.RefreshToken())
	assert.Contains(t, h.server.Bodies(httpapi.PathRefresh)[0], first.RefreshToken)
	assert.Empty(t, h.nav.Reasons())
}

func TestPipeline_PropagatesRequestID(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.server.ExpireAccess()

	ctx := logger.NewRequestIDContext(context.Background(), "cli-run-1")
	req, err := h.pipeline.NewRequest(ctx, http.MethodGet, httpapi.PathChatHistory, nil)
	require.NoError(t, err)
	resp, err := h.pipeline.Send(ctx, req)

	require.NoError(t, err)
	defer closeBody(t, resp)
	assert.Equal(t, []string{"cli-run-1", "cli-run-1"}, h.server.RequestIDs(httpapi.PathChatHistory))
	assert.Equal(t, []string{"cli-run-1"}, h.server.RequestIDs(httpapi.PathRefresh))
}

func TestPipeline_ReplaysRequestBody(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.server.ExpireAccess()

	req, err := h.pipeline.NewRequest(context.Background(), http.MethodPost, httpapi.PathChat, domain.ChatRequest{Prompt: "hello"})
	require.NoError(t, err)
	resp, err := h.pipeline.Send(context.Background(), req)

	require.NoError(t, err)
	defer closeBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	bodies := h.server.Bodies(httpapi.PathChat)
	require.Len(t, bodies, 2)
	assert.JSONEq(t, `{"prompt":"hello"}`, bodies[0])
	assert.Equal(t, bodies[0], bodies[1])
}

func TestPipeline_BuffersBodyWithoutGetBody(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.server.ExpireAccess()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, h.server.URL+httpapi.PathChat,
		io.NopCloser(strings.NewReader(`{"prompt":"streamed"}`)))
	require.NoError(t, err)
	require.Nil(t, req.GetBody)

	resp, err := h.pipeline.Send(context.Background(), req)

	require.NoError(t, err)
	defer closeBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{`{"prompt":"streamed"}`, `{"prompt":"streamed"}`}, h.server.Bodies(httpapi.PathChat))
}

func TestPipeline_RefreshRejectedEndsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.server.ExpireAccess()
	h.server.RejectRefresh()

	resp, err := h.get(t, httpapi.PathChatHistory)

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrRefreshFailed)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Equal(t, 1, h.server.Hits(httpapi.PathChatHistory), "no replay after a failed refresh")
	assert.Equal(t, []domain.LogoutReason{domain.ReasonRefreshUnauthorized}, h.nav.Reasons())
	assert.False(t, h.store.IsAuthenticated())
	assert.Empty(t, h.store.AccessToken())
	assert.Empty(t, h.store.RefreshToken())
}

func TestPipeline_RefreshEndpointThroughPipeline(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.server.RejectRefresh()

	req, err := h.pipeline.NewRequest(context.Background(), http.MethodPost, httpapi.PathRefresh,
		domain.RefreshRequest{RefreshToken: "stale"})
	require.NoError(t, err)
	resp, err := h.pipeline.Send(context.Background(), req)

	require.NoError(t, err)
	defer closeBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 1, h.server.RefreshCalls(), "the refresh call itself is never refreshed or replayed")
	assert.Equal(t, []domain.LogoutReason{domain.ReasonRefreshUnauthorized}, h.nav.Reasons())
	assert.False(t, h.store.IsAuthenticated())
}

func TestPipeline_SecondUnauthorizedIsReturned(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.server.ExpireAccess()
	h.server.DenyAlways(httpapi.PathChatHistory)

	resp, err := h.get(t, httpapi.PathChatHistory)

	require.NoError(t, err)
	defer closeBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 1, h.server.RefreshCalls())
	assert.Equal(t, 2, h.server.Hits(httpapi.PathChatHistory))
	assert.Empty(t, h.nav.Reasons())
	assert.True(t, h.store.IsAuthenticated())
}

func TestPipeline_MissingRefreshToken(t *testing.T) {
	h := newHarness(t)

	resp, err := h.get(t, httpapi.PathChatHistory)

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrMissingRefreshToken)
	assert.Zero(t, h.server.RefreshCalls())
	assert.Equal(t, []domain.LogoutReason{domain.ReasonMissingRefreshToken}, h.nav.Reasons())
}

func TestPipeline_NonUnauthorizedPassesThrough(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	resp, err := h.get(t, "/boom")

	require.NoError(t, err)
	defer closeBody(t, resp)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Zero(t, h.server.RefreshCalls())
}

func TestPipeline_ConcurrentUnauthorizedRefreshOnce(t *testing.T) {
	const callers = 10

	h := newHarness(t)
	stale := h.login(t)
	h.server.ExpireAccess()
	release := h.server.HoldRefresh()
	t.Cleanup(release)

	var g errgroup.Group
	for range callers {
		g.Go(func() error {
			resp, err := h.get(t, httpapi.PathChatHistory)
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()
			if resp.StatusCode != http.StatusOK {
				return errors.New(resp.Status)
			}
			return nil
		})
	}

	require.Eventually(t, func() bool {
		return h.server.RefreshCalls() == 1 && h.coord.Waiting() == callers-1
	}, 5*time.Second, time.Millisecond)
	release()

	require.NoError(t, g.Wait())
	assert.Equal(t, 1, h.server.RefreshCalls())
	assert.Equal(t, 2*callers, h.server.Hits(httpapi.PathChatHistory))
	assert.Zero(t, h.coord.Waiting())

	refreshed := h.store.AccessToken()
	require.NotEqual(t, stale.AccessToken, refreshed)
	bearers := h.server.Bearers(httpapi.PathChatHistory)
	require.Len(t, bearers, 2*callers)
	for i, token := range bearers[:callers] {
		assert.Equal(t, stale.AccessToken, token, "first attempt %d", i)
	}
	for i, token := range bearers[callers:] {
		assert.Equal(t, refreshed, token, "replay %d", i)
	}
}

func TestNewJSONRequest(t *testing.T) {
	base, err := pipeline.ParseBaseURL("http://api.example.com/v1")
	require.NoError(t, err)

	t.Run("with body", func(t *testing.T) {
		ctx := logger.NewRequestIDContext(context.Background(), "run-7")
		req, err := pipeline.NewJSONRequest(ctx, base, http.MethodPost, httpapi.PathChat, domain.ChatRequest{Prompt: "hi"})
		require.NoError(t, err)

		assert.Equal(t, "http://api.example.com/v1/chat", req.URL.String())
		assert.Equal(t, "application/json", req.Header.Get("Accept"))
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		assert.Equal(t, "run-7", req.Header.Get(logger.HeaderRequestID))

		raw, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"prompt":"hi"}`, string(raw))
	})

	t.Run("without body", func(t *testing.T) {
		req, err := pipeline.NewJSONRequest(context.Background(), base, http.MethodGet, httpapi.PathChatHistory, nil)
		require.NoError(t, err)

		assert.Nil(t, req.Body)
		assert.Empty(t, req.Header.Get("Content-Type"))
	})

	t.Run("relative base url", func(t *testing.T) {
		_, err := pipeline.ParseBaseURL("/v1")
		assert.ErrorIs(t, err, pipeline.ErrInvalidBaseURL)
	})
}

func TestPipeline_StaleTokenReplaysWithoutRefresh(t *testing.T) {
	h := newHarness(t)
	stale := h.login(t)
	fresh := h.server.Issue(t)

	req, err := h.pipeline.NewRequest(context.Background(), http.MethodGet, httpapi.PathChatHistory, nil)
	require.NoError(t, err)

	// Токен в хранилище меняется между чтением и ответом сервера.
	p, err := pipeline.New(doerFunc(func(r *http.Request) (*http.Response, error) {
		if r.Header.Get("Authorization") == "Bearer "+stale.AccessToken {
			require.NoError(t, h.store.SetTokens(r.Context(), fresh))
		}
		return h.server.Client().Do(r)
	}), h.server.URL, httpapi.PathRefresh, h.store, h.coord, events.NewBus())
	require.NoError(t, err)

	resp, err := p.Send(context.Background(), req)

	require.NoError(t, err)
	defer closeBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, h.server.RefreshCalls())
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

type countingRefresher struct {
	calls int
}

func (r *countingRefresher) EnsureFreshCredential(context.Context) (string, error) {
	r.calls++
	return "", errors.New("unexpected refresh")
}

type credentials string

func (c credentials) AccessToken() string { return string(c) }

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, domain.LogoutReason) {}

func TestPipeline_TransportErrorNeverRefreshes(t *testing.T) {
	netErr := errors.New("dial tcp: connection refused")
	refresher := &countingRefresher{}

	p, err := pipeline.New(doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, netErr
	}), "http://api.invalid", httpapi.PathRefresh, credentials("A1"), refresher, discardPublisher{})
	require.NoError(t, err)

	req, err := p.NewRequest(context.Background(), http.MethodGet, httpapi.PathChatHistory, nil)
	require.NoError(t, err)
	resp, err := p.Send(context.Background(), req)

	require.ErrorIs(t, err, netErr)
	assert.Nil(t, resp)
	assert.Zero(t, refresher.calls)
}

func TestPipeline_OmitsHeaderWithoutToken(t *testing.T) {
	var seen []string
	p, err := pipeline.New(doerFunc(func(r *http.Request) (*http.Response, error) {
		seen = append(seen, r.Header.Get("Authorization"))
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	}), "http://api.invalid", httpapi.PathRefresh, credentials(""), &countingRefresher{}, discardPublisher{})
	require.NoError(t, err)

	req, err := p.NewRequest(context.Background(), http.MethodGet, httpapi.PathChatHistory, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer leaked")

	resp, err := p.Send(context.Background(), req)

	require.NoError(t, err)
	closeBody(t, resp)
	assert.Equal(t, []string{""}, seen)
}

func TestNew_RejectsRelativeBaseURL(t *testing.T) {
	_, err := pipeline.New(http.DefaultClient, "/relative", httpapi.PathRefresh, credentials(""), &countingRefresher{}, discardPublisher{})
	require.ErrorIs(t, err, pipeline.ErrInvalidBaseURL)
}

func TestAttempt(t *testing.T) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, "http://api.invalid/chat",
		strings.NewReader(`{"prompt":"x"}`))
	require.NoError(t, err)

	first := pipeline.Attempt{Number: 1, Token: "A1", Original: req}
	second := first.Next("A2")

	assert.False(t, first.Retried())
	assert.True(t, second.Retried())
	assert.Equal(t, "A1", first.Token)
	assert.Same(t, req, second.Original)

	built, err := second.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer A2", built.Header.Get("Authorization"))
	body, err := io.ReadAll(built.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"prompt":"x"}`, string(body))
	assert.Empty(t, req.Header.Get("Authorization"))
}
