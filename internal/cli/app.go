// Package cli es la interfaz de menús en la terminal.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"term-chat/internal/livechat"
	"term-chat/internal/service"
)

// Services agrupa las dependencias de la interfaz.
type Services struct {
	Users    *service.UserService
	Members  *service.MembershipService
	Messages *service.MessageService
	Recent   *service.RecentService
}

type Options struct {
	PollInterval time.Duration
	// PasswordFD es el descriptor usado para leer contraseñas sin eco.
	// Con -1, o si no es una terminal, se leen como una línea más.
	PasswordFD int
	Now        func() time.Time
	Logger     *zap.Logger
}

type App struct {
	svc    Services
	in     *bufio.Reader
	out    io.Writer
	opts   Options
	logger *zap.Logger
}

func NewApp(svc Services, in io.Reader, out io.Writer, opts Options) *App {
	if opts.PollInterval <= 0 {
		opts.PollInterval = livechat.DefaultPollInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &App{
		svc:    svc,
		in:     bufio.NewReader(in),
		out:    out,
		opts:   opts,
		logger: opts.Logger,
	}
}

// Run muestra el menú principal hasta que el usuario sale o la entrada se cierra.
func (a *App) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		a.println("\n========== term-chat ==========")
		a.println("1. register")
		a.println("2. login")
		a.println("3. delete user (admin)")
		a.println("0. quit")

		choice, err := a.prompt("choice: ")
		if err != nil {
			return nil
		}
		switch choice {
		case "1":
			a.registerFlow(ctx)
		case "2":
			if user, ok := a.loginFlow(ctx); ok {
				if err := a.userMenu(ctx, user); err != nil {
					return nil
				}
			}
		case "3":
			a.deleteUserFlow(ctx)
		case "0", "q", "quit", "exit":
			a.println("bye")
			return nil
		default:
			a.println("invalid choice")
		}
	}
}

func (a *App) registerFlow(ctx context.Context) {
	username, err := a.prompt("username: ")
	if err != nil {
		return
	}
	password, err := a.password("password: ")
	if err != nil {
		return
	}
	confirm, err := a.password("confirm password: ")
	if err != nil {
		return
	}
	if password != confirm {
		a.println("passwords do not match")
		return
	}
	if _, err := a.svc.Users.Register(ctx, username, password); err != nil {
		a.showError(err)
		return
	}
	a.println("registered, you can log in now")
}

func (a *App) loginFlow(ctx context.Context) (string, bool) {
	username, err := a.prompt("username: ")
	if err != nil {
		return "", false
	}
	password, err := a.password("password: ")
	if err != nil {
		return "", false
	}
	user, err := a.svc.Users.Login(ctx, username, password)
	if err != nil {
		a.showError(err)
		return "", false
	}
	a.logger.Info("user logged in", zap.String("username", user.Username))
	a.printf("welcome, %s\n", user.Username)
	return user.Username, true
}

func (a *App) deleteUserFlow(ctx context.Context) {
	username, err := a.prompt("username to delete: ")
	if err != nil {
		return
	}
	adminPassword, err := a.password("admin password: ")
	if err != nil {
		return
	}
	if err := a.svc.Users.DeleteUser(ctx, username, adminPassword); err != nil {
		a.showError(err)
		return
	}
	a.printf("user %s deleted\n", strings.TrimSpace(username))
}

func (a *App) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (a *App) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	return a.readLine()
}

func (a *App) password(label string) (string, error) {
	fd := a.opts.PasswordFD
	if fd < 0 || !term.IsTerminal(fd) {
		return a.prompt(label)
	}
	fmt.Fprint(a.out, label)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func (a *App) println(s string) {
	fmt.Fprintln(a.out, s)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) showError(err error) {
	a.println(errorMessage(err))
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		return "username already taken"
	case errors.Is(err, service.ErrInvalidUsername):
		return "username must be 1-32 characters without spaces"
	case errors.Is(err, service.ErrInvalidPassword):
		return "password cannot be empty"
	case errors.Is(err, service.ErrInvalidCredentials):
		return "wrong username or password"
	case errors.Is(err, service.ErrRateLimited):
		return "too many login attempts, try again later"
	case errors.Is(err, service.ErrAdminPasswordInvalid):
		return "wrong admin password"
	case errors.Is(err, service.ErrUserNotFound):
		return "user not found"
	case errors.Is(err, service.ErrSelfFriend):
		return "you cannot add yourself"
	case errors.Is(err, service.ErrAlreadyFriends):
		return "already friends"
	case errors.Is(err, service.ErrInvalidGroupName):
		return "invalid group name"
	case errors.Is(err, service.ErrGroupExists):
		return "group name already taken"
	case errors.Is(err, service.ErrGroupNotFound):
		return "group not found"
	case errors.Is(err, service.ErrAlreadyMember):
		return "already a member of that group"
	case errors.Is(err, service.ErrNotMember):
		return "that user is not a member of the group"
	case errors.Is(err, service.ErrRemoveForbidden):
		return "only the group creator or an admin can remove members"
	default:
		return fmt.Sprintf("error: %v", err)
	}
}
