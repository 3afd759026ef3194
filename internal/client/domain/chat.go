package domain

// RegisterRequest - данные регистрации.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest - данные входа.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse - ответ на регистрацию.
type RegisterResponse struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// RefreshRequest - тело запроса обновления токенов.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChatRequest - сообщение пользователя.
type ChatRequest struct {
	Prompt string `json:"prompt"`
}

// Message - запись переписки. Ответ на отправку имеет ту же форму.
type Message struct {
	ID        string `json:"id"`
	Prompt    string `json:"prompt"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}
