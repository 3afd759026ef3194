package cli

import (
	"context"
	"fmt"
	"io"
	"sync"

	"chatclient/internal/client/domain"
)

// loginPrompt вместо перехода на страницу входа печатает подсказку.
type loginPrompt struct {
	out io.Writer

	mu     sync.Mutex
	reason domain.LogoutReason
	fired  bool
}

func (n *loginPrompt) ToLogin(_ context.Context, reason domain.LogoutReason) {
	n.mu.Lock()
	n.reason = reason
	n.fired = true
	n.mu.Unlock()

	_, _ = fmt.Fprintf(n.out, "session ended (%s): please run `chatcli login`\n", reason)
}

// take возвращает причину последнего выхода и сбрасывает ее.
func (n *loginPrompt) take() (domain.LogoutReason, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	reason, fired := n.reason, n.fired
	n.reason, n.fired = "", false
	return reason, fired
}
