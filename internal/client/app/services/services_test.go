package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chatclient/internal/client/adapters/codec"
	"chatclient/internal/client/adapters/httpapi"
	"chatclient/internal/client/adapters/storage"
	"chatclient/internal/client/apitest"
	"chatclient/internal/client/app/events"
	"chatclient/internal/client/app/pipeline"
	"chatclient/internal/client/app/refresh"
	"chatclient/internal/client/app/services"
	"chatclient/internal/client/app/session"
	"chatclient/internal/client/domain"
)

type mockAuthAPI struct {
	mock.Mock
}

func (m *mockAuthAPI) Register(ctx context.Context, req domain.RegisterRequest) (*domain.RegisterResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RegisterResponse), args.Error(1)
}

func (m *mockAuthAPI) Login(ctx context.Context, req domain.LoginRequest) (*domain.TokenPair, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenPair), args.Error(1)
}

func (m *mockAuthAPI) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TokenPair), args.Error(1)
}

type mockChatAPI struct {
	mock.Mock
}

func (m *mockChatAPI) SendMessage(ctx context.Context, prompt string) (*domain.Message, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *mockChatAPI) History(ctx context.Context) ([]domain.Message, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

func newStore() (*session.Store, *storage.MemoryStorage) {
	kv := storage.NewMemoryStorage()
	return session.NewStore(kv, codec.NewJWTCodec()), kv
}

func TestAuthService_Register(t *testing.T) {
	authAPI := new(mockAuthAPI)
	store, _ := newStore()
	svc := services.NewAuthService(authAPI, store)

	expected := &domain.RegisterResponse{ID: "42", Email: "a@example.com", Message: "user registered"}
	authAPI.On("Register", mock.Anything, domain.RegisterRequest{Email: "a@example.com", Password: "pw"}).
		Return(expected, nil).Once()

	resp, err := svc.Register(context.Background(), "  a@example.com ", "pw")

	require.NoError(t, err)
	assert.Equal(t, expected, resp)
	assert.False(t, store.IsAuthenticated())
	authAPI.AssertExpectations(t)
}

func TestAuthService_RejectsBlankCredentials(t *testing.T) {
	authAPI := new(mockAuthAPI)
	store, _ := newStore()
	svc := services.NewAuthService(authAPI, store)

	_, err := svc.Register(context.Background(), " ", "pw")
	require.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "a@example.com", "")
	require.ErrorIs(t, err, services.ErrInvalidCredentials)

	authAPI.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	authAPI.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestAuthService_LoginStoresSession(t *testing.T) {
	authAPI := new(mockAuthAPI)
	store, kv := newStore()
	svc := services.NewAuthService(authAPI, store)

	access := apitest.Token(t, "user-7")
	authAPI.On("Login", mock.Anything, domain.LoginRequest{Email: "a@example.com", Password: "pw"}).
		Return(&domain.TokenPair{AccessToken: access, RefreshToken: "R1"}, nil).Once()

	sess, err := svc.Login(context.Background(), "a@example.com", "pw")

	require.NoError(t, err)
	assert.True(t, sess.IsAuthenticated)
	assert.Equal(t, "user-7", sess.SubjectID)
	assert.Equal(t, "user-7@example.com", sess.Email)
	assert.Equal(t, sess, svc.Session())

	stored, err := kv.Get(context.Background(), domain.RefreshTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "R1", stored)
}

func TestAuthService_LoginFailureKeepsSession(t *testing.T) {
	authAPI := new(mockAuthAPI)
	store, _ := newStore()
	svc := services.NewAuthService(authAPI, store)

	authAPI.On("Login", mock.Anything, mock.Anything).
		Return(nil, &domain.APIError{Status: 401, Message: "invalid credentials"}).Once()

	sess, err := svc.Login(context.Background(), "a@example.com", "pw")

	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.False(t, sess.IsAuthenticated)
	assert.False(t, store.IsAuthenticated())
}

func TestAuthService_LogoutAndRestore(t *testing.T) {
	authAPI := new(mockAuthAPI)
	kv := storage.NewMemoryStorage()
	ctx := context.Background()

	seed := session.NewStore(kv, codec.NewJWTCodec())
	require.NoError(t, seed.SetTokens(ctx, domain.TokenPair{AccessToken: apitest.Token(t, "user-1"), RefreshToken: "R1"}))

	svc := services.NewAuthService(authAPI, session.NewStore(kv, codec.NewJWTCodec()))

	sess, err := svc.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, sess.IsAuthenticated)
	assert.Equal(t, "user-1", sess.SubjectID)

	sess, err = svc.Restore(ctx)
	require.NoError(t, err, "restoring twice returns the current session")
	assert.True(t, sess.IsAuthenticated)

	require.NoError(t, svc.Logout(ctx))
	assert.False(t, svc.Session().IsAuthenticated)
	assert.Zero(t, kv.Len())
}

func TestChatService(t *testing.T) {
	errDown := errors.New("service down")

	tests := []struct {
		name          string
		authenticated bool
		prompt        string
		setup         func(m *mockChatAPI)
		expectedErr   error
	}{
		{
			name:          "sends message",
			authenticated: true,
			prompt:        " hi ",
			setup: func(m *mockChatAPI) {
				m.On("SendMessage", mock.Anything, "hi").Return(&domain.Message{ID: "1", Prompt: "hi", Response: "hello"}, nil).Once()
			},
		},
		{
			name:          "empty prompt",
			authenticated: true,
			prompt:        "   ",
			expectedErr:   services.ErrEmptyPrompt,
		},
		{
			name:        "not authenticated",
			prompt:      "hi",
			expectedErr: domain.ErrNotAuthenticated,
		},
		{
			name:          "api failure",
			authenticated: true,
			prompt:        "hi",
			setup: func(m *mockChatAPI) {
				m.On("SendMessage", mock.Anything, "hi").Return(nil, errDown).Once()
			},
			expectedErr: errDown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chatAPI := new(mockChatAPI)
			if tt.setup != nil {
				tt.setup(chatAPI)
			}
			svc := services.NewChatService(chatAPI, authenticated(tt.authenticated))

			msg, err := svc.Send(context.Background(), tt.prompt)

			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, msg)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "hello", msg.Response)
			}
			chatAPI.AssertExpectations(t)
		})
	}
}

func TestChatService_History(t *testing.T) {
	chatAPI := new(mockChatAPI)
	chatAPI.On("History", mock.Anything).Return([]domain.Message{{ID: "1"}, {ID: "2"}}, nil).Once()

	history, err := services.NewChatService(chatAPI, authenticated(true)).History(context.Background())
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = services.NewChatService(chatAPI, authenticated(false)).History(context.Background())
	require.ErrorIs(t, err, domain.ErrNotAuthenticated)
	chatAPI.AssertExpectations(t)
}

type authenticated bool

func (a authenticated) IsAuthenticated() bool { return bool(a) }

// Полный путь: вход, истечение access-токена, отправка сообщения с прозрачным обновлением.
func TestServices_EndToEnd(t *testing.T) {
	ctx := context.Background()
	server := apitest.NewServer(t)
	store, _ := newStore()
	bus := events.NewBus()

	authAPI, err := httpapi.NewAuthAPI(server.Client(), server.URL, "")
	require.NoError(t, err)
	coord := refresh.NewCoordinator(authAPI, store, bus)
	p, err := pipeline.New(server.Client(), server.URL, httpapi.PathRefresh, store, coord, bus)
	require.NoError(t, err)

	authSvc := services.NewAuthService(authAPI, store)
	chatSvc := services.NewChatService(httpapi.NewChatAPI(p), store)

	sess, err := authSvc.Login(ctx, "user-1@example.com", "secret")
	require.NoError(t, err)
	require.True(t, sess.IsAuthenticated)
	loginPair := server.Current()

	server.ExpireAccess()

	msg, err := chatSvc.Send(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", msg.Response)

	history, err := chatSvc.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)

	assert.Equal(t, 1, server.RefreshCalls())
	assert.NotEqual(t, loginPair.RefreshToken, authSvc.Session().RefreshToken)
	assert.Equal(t, server.Current().AccessToken, authSvc.Session().AccessToken)
}
