package livechat

import (
	"fmt"
	"time"

	"term-chat/internal/domain"
)

const clearScreen = "\033[H\033[2J"

// render dibuja la pantalla completa. Se llama con mu tomado.
func (s *Session) render(history []domain.Message) {
	fmt.Fprint(s.out, clearScreen)
	fmt.Fprintf(s.out, "\n========== %s ==========\n", Title(s.target, s.isGroup))
	fmt.Fprintf(s.out, "auto-refresh every %s\n", s.interval)
	fmt.Fprintln(s.out, "\nhistory:")
	if len(history) == 0 {
		fmt.Fprintln(s.out, "no messages yet")
	}
	now := s.now()
	for _, m := range history {
		fmt.Fprintln(s.out, FormatLine(m, s.user, now))
	}
	fmt.Fprintf(s.out, "\ntype a message to chat (type '%s' to leave):\n", exitCommand)
}

func (s *Session) prompt() {
	fmt.Fprintf(s.out, "%s >> ", s.user)
}

// Title es el encabezado de la conversación.
func Title(target string, isGroup bool) string {
	if isGroup {
		return "group: " + target
	}
	return "private: " + target
}

// FormatLine formatea un mensaje del historial. En chats directos los
// mensajes propios se muestran como "me".
func FormatLine(m domain.Message, viewer string, now time.Time) string {
	sender := m.Sender
	if !m.IsGroup && m.Sender == viewer {
		sender = "me"
	}
	return fmt.Sprintf("[%s] %s: %s", domain.FormatMessageTime(m.Timestamp, now), sender, m.Content)
}
