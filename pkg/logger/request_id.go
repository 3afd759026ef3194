package logger

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HeaderRequestID передает идентификатор запроса между клиентом и сервером.
const HeaderRequestID = "X-Request-ID"

const maxRequestIDLength = 128

type requestIDKeyType struct{}

var requestIDKey = requestIDKeyType{}

// NewRequestIDContext сохраняет идентификатор запроса в контексте.
// Непригодный requestID заменяется сгенерированным.
func NewRequestIDContext(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, NormalizeRequestID(requestID))
}

// NormalizeRequestID обрезает пробелы и заменяет пустой, слишком длинный
// или содержащий управляющие символы идентификатор новым.
func NormalizeRequestID(requestID string) string {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" || len(requestID) > maxRequestIDLength {
		return GenerateRequestID()
	}
	for _, r := range requestID {
		if r < 0x20 || r == 0x7f {
			return GenerateRequestID()
		}
	}
	return requestID
}

// GetRequestID извлекает идентификатор запроса из контекста.
func GetRequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// GenerateRequestID генерирует новый идентификатор запроса.
func GenerateRequestID() string {
	return uuid.NewString()
}

// InjectRequestID копирует идентификатор из ctx в заголовок исходящего запроса.
func InjectRequestID(ctx context.Context, header http.Header) {
	if id, ok := GetRequestID(ctx); ok {
		header.Set(HeaderRequestID, id)
	}
}

// WithRequestID возвращает копию логгера с полем request_id, если оно есть в контексте.
func (l *Logger) WithRequestID(ctx context.Context) *Logger {
	if id, ok := GetRequestID(ctx); ok {
		return l.With(zap.String(RequestID, id))
	}
	return l
}
