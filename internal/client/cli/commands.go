package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/common-nighthawk/go-figure"
	"go.uber.org/zap"

	"chatclient/internal/client/config"
	"chatclient/pkg/logger"
)

// ErrUsage возвращается для неизвестной команды или неверных аргументов.
var ErrUsage = errors.New("usage error")

const usage = `usage: chatcli <command> [flags]

commands:
  register -email <email> -password <password>
  login    -email <email> -password <password>
  logout
  whoami
  send     <prompt>
  history
`

type command func(ctx context.Context, args []string) error

// Run выполняет подкоманду. Если во время команды сессия завершилась,
// возвращается ErrSessionEnded.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		a.printUsage()
		if len(args) == 0 {
			return ErrUsage
		}
		return nil
	}

	commands := map[string]command{
		"register": a.register,
		"login":    a.login,
		"logout":   a.logout,
		"whoami":   a.whoami,
		"send":     a.send,
		"history":  a.history,
	}

	cmd, ok := commands[args[0]]
	if !ok {
		a.printUsage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}

	ctx = logger.NewContext(ctx, logger.Log(ctx).With(zap.String("command", args[0])))
	err := cmd(ctx, args[1:])
	if ended := a.sessionEnded(); ended != nil {
		return errors.Join(ended, err)
	}
	return err
}

func (a *App) printUsage() {
	banner := figure.NewFigure(config.ServiceName, "cybermedium", true)
	_, _ = fmt.Fprintln(a.out, banner.String())
	_, _ = fmt.Fprint(a.out, usage)
}

func credentialsFlags(name string, args []string, out io.Writer) (email, password string, err error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&email, "email", "", "account email")
	fs.StringVar(&password, "password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrUsage, err)
	}
	return email, password, nil
}

func (a *App) register(ctx context.Context, args []string) error {
	email, password, err := credentialsFlags("register", args, a.out)
	if err != nil {
		return err
	}

	resp, err := a.auth.Register(ctx, email, password)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.out, "%s (id %s)\n", resp.Message, resp.ID)
	return nil
}

func (a *App) login(ctx context.Context, args []string) error {
	email, password, err := credentialsFlags("login", args, a.out)
	if err != nil {
		return err
	}

	sess, err := a.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.out, "logged in as %s\n", displayName(sess.Email, sess.SubjectID))
	return nil
}

func (a *App) logout(ctx context.Context, _ []string) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *App) whoami(_ context.Context, _ []string) error {
	sess := a.auth.Session()
	if !sess.IsAuthenticated {
		_, _ = fmt.Fprintln(a.out, "not logged in")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "subject:\t%s\n", sess.SubjectID)
	_, _ = fmt.Fprintf(tw, "email:\t%s\n", displayName(sess.Email, "-"))
	if left, ok := a.codec.ExpiresIn(sess.AccessToken, time.Now()); ok {
		if left > 0 {
			_, _ = fmt.Fprintf(tw, "access token:\texpires in %s\n", left.Round(time.Second))
		} else {
			_, _ = fmt.Fprintf(tw, "access token:\texpired, will be refreshed on next request\n")
		}
	}
	return tw.Flush()
}

func (a *App) send(ctx context.Context, args []string) error {
	msg, err := a.chat.Send(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(a.out, msg.Response)
	return nil
}

func (a *App) history(ctx context.Context, _ []string) error {
	messages, err := a.chat.History(ctx)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		_, _ = fmt.Fprintln(a.out, "no messages yet")
		return nil
	}

	for _, m := range messages {
		_, _ = fmt.Fprintf(a.out, "[%s] > %s\n%s\n\n", m.Timestamp, m.Prompt, m.Response)
	}
	return nil
}

func displayName(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
