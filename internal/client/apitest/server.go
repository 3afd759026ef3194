// Package apitest поднимает поддельный API чата для тестов клиента.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"chatclient/internal/client/domain"
	"chatclient/pkg/logger"
)

const signingKey = "apitest"

// Server - поддельный API с одной активной парой токенов.
// Обновление ротирует обе части пары.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	subject       string
	access        string
	refresh       string
	refreshCalls  int
	rejectRefresh bool
	alwaysDeny    map[string]bool
	hits          map[string]int
	bodies        map[string][]string
	requestIDs    map[string][]string
	bearers       map[string][]string
	messages      []domain.Message
	refreshGate   chan struct{}
}

// NewServer запускает сервер и останавливает его по завершении теста.
func NewServer(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		subject:    "user-1",
		alwaysDeny: make(map[string]bool),
		hits:       make(map[string]int),
		bodies:     make(map[string][]string),
		requestIDs: make(map[string][]string),
		bearers:    make(map[string][]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", s.register)
	mux.HandleFunc("POST /auth/login", s.login)
	mux.HandleFunc("POST /auth/refresh", s.refreshTokens)
	mux.HandleFunc("POST /chat", s.authorized(s.chat))
	mux.HandleFunc("GET /chat/history", s.authorized(s.history))
	mux.HandleFunc("GET /boom", func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusInternalServerError, "boom")
	})

	s.Server = httptest.NewServer(s.count(mux))
	t.Cleanup(s.Close)
	return s
}

// Token подписывает access-токен с заданным sub.
func Token(t *testing.T, sub string) string {
	t.Helper()

	token, err := signToken(sub)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func signToken(sub string) (string, error) {
	claims := jwt.MapClaims{
		"sub":   sub,
		"email": sub + "@example.com",
		"exp":   time.Now().Add(15 * time.Minute).Unix(),
		"jti":   uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
}

// Issue выдает новую активную пару токенов.
func (s *Server) Issue(t *testing.T) domain.TokenPair {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	pair, err := s.rotateLocked()
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}
	return pair
}

// ExpireAccess делает текущий access-токен недействительным, refresh-токен остается.
func (s *Server) ExpireAccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
}

// RejectRefresh заставляет эндпоинт обновления отвечать 401.
func (s *Server) RejectRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectRefresh = true
}

// DenyAlways заставляет path отвечать 401 при любом токене.
func (s *Server) DenyAlways(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alwaysDeny[path] = true
}

// HoldRefresh задерживает ответы на обновление до вызова release.
func (s *Server) HoldRefresh() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.refreshGate = gate
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// RefreshCalls возвращает число обращений к эндпоинту обновления.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// Hits возвращает число запросов к path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Bodies возвращает тела запросов к path в порядке поступления.
func (s *Server) Bodies(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.bodies[path]...)
}

// RequestIDs возвращает заголовки X-Request-ID запросов к path.
func (s *Server) RequestIDs(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs[path]...)
}

// Bearers возвращает токены из заголовка Authorization запросов к path
// в порядке поступления. Запрос без заголовка дает пустую строку.
func (s *Server) Bearers(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.bearers[path]...)
}

// Current возвращает активную пару токенов.
func (s *Server) Current() domain.TokenPair {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.TokenPair{AccessToken: s.access, RefreshToken: s.refresh}
}

func (s *Server) rotateLocked() (domain.TokenPair, error) {
	access, err := signToken(s.subject)
	if err != nil {
		return domain.TokenPair{}, err
	}
	s.access = access
	s.refresh = "refresh-" + uuid.NewString()
	return domain.TokenPair{AccessToken: s.access, RefreshToken: s.refresh}, nil
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(raw)))

		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.bodies[r.URL.Path] = append(s.bodies[r.URL.Path], string(raw))
		s.requestIDs[r.URL.Path] = append(s.requestIDs[r.URL.Path], r.Header.Get(logger.HeaderRequestID))
		s.bearers[r.URL.Path] = append(s.bearers[r.URL.Path], strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		s.mu.Lock()
		ok := s.access != "" && token == s.access && !s.alwaysDeny[r.URL.Path]
		s.mu.Unlock()

		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next(w, r)
	}
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	writeJSON(w, http.StatusCreated, domain.RegisterResponse{
		ID:      uuid.NewString(),
		Email:   req.Email,
		Message: "user registered",
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Password != "secret" {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.mu.Lock()
	pair, err := s.rotateLocked()
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) refreshTokens(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	s.mu.Lock()
	s.refreshCalls++
	gate := s.refreshGate
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rejectRefresh || req.RefreshToken == "" || req.RefreshToken != s.refresh {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	pair, err := s.rotateLocked()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	msg := domain.Message{
		ID:        uuid.NewString(),
		Prompt:    req.Prompt,
		Response:  fmt.Sprintf("echo: %s", req.Prompt),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) history(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append([]domain.Message{}, s.messages...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, domain.APIError{
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
