// Package livechat implementa la vista de conversación en vivo: un loop de
// entrada en primer plano y un poller que redibuja cuando el store tiene
// mensajes nuevos.
package livechat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"term-chat/internal/domain"
)

const (
	DefaultPollInterval = 3 * time.Second
	exitCommand         = "exit"
)

// MessageStore es lo que la sesión necesita para leer y enviar mensajes.
type MessageStore interface {
	History(ctx context.Context, user, target string, isGroup bool) ([]domain.Message, error)
	Send(ctx context.Context, sender, target, content string, isGroup bool) (domain.Message, error)
}

// LatestReader relee el timestamp del último mensaje de la conversación.
type LatestReader interface {
	LastMessageTime(ctx context.Context, user, target string, isGroup bool) (string, error)
}

type Options struct {
	User         string
	Target       string
	IsGroup      bool
	PollInterval time.Duration
	Now          func() time.Time
	Logger       *zap.Logger
}

// Session es una conversación abierta en la terminal. Se usa una sola vez.
type Session struct {
	id       string
	user     string
	target   string
	isGroup  bool
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger

	messages MessageStore
	latest   LatestReader
	in       *bufio.Reader

	// mu es dueño de out: nada escribe en la terminal sin tomarlo.
	mu  sync.Mutex
	out io.Writer

	lastSeen atomic.Pointer[string]
	stop     chan struct{}
	wg       sync.WaitGroup
}

func NewSession(messages MessageStore, latest LatestReader, in io.Reader, out io.Writer, opts Options) *Session {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	id := uuid.NewString()
	s := &Session{
		id:       id,
		user:     opts.User,
		target:   opts.Target,
		isGroup:  opts.IsGroup,
		interval: opts.PollInterval,
		now:      opts.Now,
		logger: opts.Logger.With(
			zap.String("session_id", id),
			zap.String("user", opts.User),
			zap.String("target", opts.Target),
			zap.Bool("group", opts.IsGroup),
		),
		messages: messages,
		latest:   latest,
		in:       bufio.NewReader(in),
		out:      out,
		stop:     make(chan struct{}),
	}
	empty := ""
	s.lastSeen.Store(&empty)
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Run muestra el historial y atiende la conversación hasta que el usuario
// escribe "exit", la entrada se cierra o ctx se cancela. Antes de volver
// espera a que el poller termine.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("live chat entered", zap.Duration("poll_interval", s.interval))

	history := s.loadHistory(ctx)
	if n := len(history); n > 0 {
		ts := history[n-1].Timestamp
		s.lastSeen.Store(&ts)
	}

	s.mu.Lock()
	s.render(history)
	s.mu.Unlock()

	s.wg.Add(1)
	go s.poll(ctx)

	err := s.inputLoop(ctx)

	close(s.stop)
	s.wg.Wait()
	s.logger.Info("live chat left")
	return err
}

func (s *Session) inputLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		s.mu.Lock()
		s.prompt()
		s.mu.Unlock()

		line, readErr := s.in.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("read input: %w", readErr)
		}
		text := strings.TrimRight(line, "\r\n")

		if strings.TrimSpace(text) == exitCommand || ctx.Err() != nil {
			return nil
		}
		if strings.TrimSpace(text) != "" {
			s.send(ctx, text)
		}
		if readErr != nil {
			// EOF cuenta como exit.
			return nil
		}
	}
}

func (s *Session) send(ctx context.Context, text string) {
	msg, err := s.messages.Send(ctx, s.user, s.target, text, s.isGroup)
	if err != nil {
		s.logger.Warn("send message failed", zap.Error(err))
		s.mu.Lock()
		fmt.Fprintf(s.out, "send failed: %v\n", err)
		s.mu.Unlock()
		return
	}

	// Actualización optimista con el reloj local; el poller la corrige si el
	// store asignó otro timestamp.
	now := domain.FormatTimestamp(s.now())
	s.lastSeen.Store(&now)

	s.mu.Lock()
	fmt.Fprintf(s.out, "[%s] me: %s\n", domain.FormatMessageTime(now, s.now()), msg.Content)
	s.mu.Unlock()
}

func (s *Session) poll(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

// refresh relee el último timestamp y redibuja si cambió.
func (s *Session) refresh(ctx context.Context) {
	seen := s.lastSeen.Load()
	current, err := s.latest.LastMessageTime(ctx, s.user, s.target, s.isGroup)
	if err != nil {
		s.logger.Debug("poll latest failed", zap.Error(err))
		return
	}
	if current == "" || current == *seen {
		return
	}

	history, err := s.messages.History(ctx, s.user, s.target, s.isGroup)
	if err != nil {
		s.logger.Debug("poll history failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.stop:
		return
	default:
	}
	// Un envío local entre la lectura y el lock deja history desactualizado;
	// el próximo tick redibuja.
	if !s.lastSeen.CompareAndSwap(seen, &current) {
		return
	}
	s.render(history)
	s.prompt()
}

func (s *Session) loadHistory(ctx context.Context) []domain.Message {
	history, err := s.messages.History(ctx, s.user, s.target, s.isGroup)
	if err != nil {
		s.logger.Warn("load history failed", zap.Error(err))
		return nil
	}
	return history
}
