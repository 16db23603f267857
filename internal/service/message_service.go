package service

import (
	"context"
	"errors"
	"strings"

	"term-chat/internal/domain"
	"term-chat/internal/repository"
)

const defaultHistoryLimit = 50

// MessageService encapsula la lógica para enviar y leer mensajes.
type MessageService struct {
	repo         repository.MessageRepository
	historyLimit int
}

var (
	ErrMessageServiceNotConfigured = errors.New("message service not configured")
	ErrMessageInvalidInput         = errors.New("message invalid input")
)

func NewMessageService(repo repository.MessageRepository, historyLimit int) *MessageService {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	return &MessageService{repo: repo, historyLimit: historyLimit}
}

// Send persiste un mensaje. El id y el timestamp los asigna el store.
func (s *MessageService) Send(ctx context.Context, sender, target, content string, isGroup bool) (domain.Message, error) {
	if s == nil || s.repo == nil {
		return domain.Message{}, ErrMessageServiceNotConfigured
	}

	sender = strings.TrimSpace(sender)
	target = strings.TrimSpace(target)
	content = strings.TrimSpace(content)
	if sender == "" || target == "" || content == "" {
		return domain.Message{}, ErrMessageInvalidInput
	}

	return s.repo.Append(ctx, sender, target, content, isGroup)
}

// History devuelve los últimos mensajes de la conversación en orden ascendente.
func (s *MessageService) History(ctx context.Context, user, target string, isGroup bool) ([]domain.Message, error) {
	if s == nil || s.repo == nil {
		return nil, ErrMessageServiceNotConfigured
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return []domain.Message{}, nil
	}
	return s.repo.Fetch(ctx, strings.TrimSpace(user), target, isGroup, s.historyLimit)
}
