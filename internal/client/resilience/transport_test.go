package resilience_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatclient/internal/client/config"
	"chatclient/internal/client/resilience"
)

func get(t *testing.T, client *http.Client, url string) (*http.Response, error) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)
	return client.Do(req)
}

func TestTransport_OpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	transport := resilience.NewTransport("api", server.Client().Transport, config.BreakerConfig{
		ErrorThreshold:   2,
		Timeout:          time.Hour,
		SuccessThreshold: 1,
	})
	client := &http.Client{Transport: transport}

	for range 2 {
		resp, err := get(t, client, server.URL)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	}

	_, err := get(t, client, server.URL)

	require.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, resilience.StateOpen, transport.(*resilience.Transport).Breaker().State())
}

func TestTransport_UnauthorizedIsNotAFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client := &http.Client{Transport: resilience.NewTransport("api", nil, config.BreakerConfig{
		ErrorThreshold: 1,
		Timeout:        time.Hour,
	})}

	for range 3 {
		resp, err := get(t, client, server.URL)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestTransport_CountsTransportErrors(t *testing.T) {
	errDial := errors.New("dial failed")
	var calls int
	transport := resilience.NewTransport("api", roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls++
		return nil, errDial
	}), config.BreakerConfig{ErrorThreshold: 1, Timeout: time.Hour})
	client := &http.Client{Transport: transport}

	_, err := get(t, client, "http://api.invalid/chat")
	require.ErrorIs(t, err, errDial)

	_, err = get(t, client, "http://api.invalid/chat")
	require.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 1, calls)
}

func TestNewTransport_DisabledReturnsNext(t *testing.T) {
	next := &http.Transport{}

	got := resilience.NewTransport("api", next, config.BreakerConfig{})

	assert.Same(t, next, got)
}
