package domain

// LogoutReason объясняет, почему сессия была завершена.
type LogoutReason string

// Причины завершения сессии.
const (
	ReasonRefreshUnauthorized LogoutReason = "refresh_unauthorized"
	ReasonMissingRefreshToken LogoutReason = "missing_refresh_token"
	ReasonRefreshFailed       LogoutReason = "refresh_failed"
)

// SessionEnded - единственное событие шины выхода.
type SessionEnded struct {
	Reason LogoutReason
}
