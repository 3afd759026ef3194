package pipeline

import (
	"context"
	"fmt"
	"net/http"
)

const bearerPrefix = "Bearer "

// Attempt - неизменяемая отметка об отправке запроса.
// Number начинается с 1, повтор после 401 получает Number 2 и больше не повторяется.
type Attempt struct {
	Number   int
	Token    string
	Original *http.Request
}

// Retried сообщает, что запрос уже был повторен.
func (a Attempt) Retried() bool {
	return a.Number > 1
}

// Next возвращает отметку повторной отправки с новым токеном.
func (a Attempt) Next(token string) Attempt {
	return Attempt{
		Number:   a.Number + 1,
		Token:    token,
		Original: a.Original,
	}
}

// Build собирает запрос для отправки: копия исходного с заголовком Authorization
// и заново открытым телом.
func (a Attempt) Build(ctx context.Context) (*http.Request, error) {
	req := a.Original.Clone(ctx)

	if a.Original.GetBody != nil {
		body, err := a.Original.GetBody()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgRewindBody, err)
		}
		req.Body = body
	}

	req.Header.Del("Authorization")
	if a.Token != "" {
		req.Header.Set("Authorization", bearerPrefix+a.Token)
	}
	return req, nil
}
