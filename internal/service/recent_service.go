package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"term-chat/internal/domain"
	"term-chat/internal/repository"
)

// GroupLister es la parte del store de grupos que necesita el agregador.
type GroupLister interface {
	ListForUser(ctx context.Context, username string) ([]string, error)
}

// RecentService calcula la lista de conversaciones recientes de un usuario.
type RecentService struct {
	logger   *zap.Logger
	messages repository.MessageRepository
	groups   GroupLister
}

func NewRecentService(logger *zap.Logger, messages repository.MessageRepository, groups GroupLister) *RecentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecentService{logger: logger, messages: messages, groups: groups}
}

// ListRecentConversations devuelve un resumen por conversación directa o de
// grupo del usuario, ordenado del más reciente al más antiguo. Nunca falla:
// si el store no responde devuelve una lista vacía.
func (s *RecentService) ListRecentConversations(ctx context.Context, user string) []domain.ConversationSummary {
	if s == nil || s.messages == nil {
		return []domain.ConversationSummary{}
	}

	direct, err := s.messages.ListDirectInvolving(ctx, user)
	if err != nil {
		s.logger.Warn("list direct messages failed", zap.String("user", user), zap.Error(err))
		return []domain.ConversationSummary{}
	}

	var groupNames []string
	if s.groups != nil {
		groupNames, err = s.groups.ListForUser(ctx, user)
		if err != nil {
			s.logger.Warn("list user groups failed", zap.String("user", user), zap.Error(err))
			return []domain.ConversationSummary{}
		}
	}
	groupMsgs, err := s.messages.ListGroupMessages(ctx, groupNames)
	if err != nil {
		s.logger.Warn("list group messages failed", zap.String("user", user), zap.Error(err))
		return []domain.ConversationSummary{}
	}

	latest := make([]domain.Message, 0)
	latest = appendLatestPerPartner(latest, direct, func(m domain.Message) string { return m.Peer(user) })
	latest = appendLatestPerPartner(latest, groupMsgs, func(m domain.Message) string { return m.Receiver })

	sort.SliceStable(latest, func(i, j int) bool {
		return latest[i].Newer(latest[j])
	})

	out := make([]domain.ConversationSummary, 0, len(latest))
	for _, m := range latest {
		partner := m.Receiver
		if !m.IsGroup {
			partner = m.Peer(user)
		}
		out = append(out, domain.ConversationSummary{
			PartnerName:        partner,
			LastMessageContent: m.Content,
			LastTimestamp:      m.Timestamp,
			IsGroup:            m.IsGroup,
		})
	}
	s.logger.Debug("recent conversations", zap.String("user", user), zap.Int("count", len(out)))
	return out
}

// appendLatestPerPartner agrega a dst el mensaje más nuevo de cada partición.
func appendLatestPerPartner(dst, msgs []domain.Message, key func(domain.Message) string) []domain.Message {
	index := make(map[string]int)
	for _, m := range msgs {
		k := key(m)
		i, ok := index[k]
		if !ok {
			index[k] = len(dst)
			dst = append(dst, m)
			continue
		}
		if m.Newer(dst[i]) {
			dst[i] = m
		}
	}
	return dst
}

// LastMessageTime relee del store el timestamp del último mensaje de una
// conversación. Devuelve "" si todavía no hay mensajes.
func (s *RecentService) LastMessageTime(ctx context.Context, user, target string, isGroup bool) (string, error) {
	if s == nil || s.messages == nil {
		return "", ErrMessageServiceNotConfigured
	}
	msg, err := s.messages.Latest(ctx, user, target, isGroup)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return msg.Timestamp, nil
}
