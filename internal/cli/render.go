package cli

import (
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"term-chat/internal/domain"
)

const (
	clearScreen     = "\033[H\033[2J"
	previewLimit    = 20
	previewKeep     = 17
	previewEllipsis = "..."
)

// RenderRecent escribe la tabla de conversaciones recientes.
func RenderRecent(w io.Writer, recent []domain.ConversationSummary, now time.Time) {
	fmt.Fprintln(w, "\n========== recent chats ==========")
	if len(recent) == 0 {
		fmt.Fprintln(w, "no conversations yet")
		fmt.Fprintln(w, "tip: add a friend or create a group to start chatting")
		return
	}
	fmt.Fprintf(w, "%-5s %-7s %-20s %-24s %s\n", "no.", "type", "name", "last message", "time")
	fmt.Fprintln(w, "------------------------------------------------------------------------")
	for i, c := range recent {
		kind := "private"
		if c.IsGroup {
			kind = "group"
		}
		fmt.Fprintf(w, "%-5d %-7s %-20s %-24s %s\n",
			i+1,
			kind,
			c.PartnerName,
			Preview(c.LastMessageContent),
			domain.FormatTimeDisplay(c.LastTimestamp, now),
		)
	}
}

// Preview recorta mensajes largos para la lista.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= previewLimit {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewKeep]) + previewEllipsis
}
