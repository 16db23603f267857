package domain

// Message es un mensaje persistido. ID y Timestamp los asigna el store.
type Message struct {
	ID        int64  `json:"id"`
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"` // usuario destino o nombre del grupo
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	IsGroup   bool   `json:"is_group"`
}

// ConversationSummary es la vista derivada de una conversacion reciente.
// No se persiste; se recalcula en cada consulta.
type ConversationSummary struct {
	PartnerName        string `json:"partner_name"`
	LastMessageContent string `json:"last_message_content"`
	LastTimestamp      string `json:"last_timestamp"`
	IsGroup            bool   `json:"is_group"`
}

// Peer devuelve el otro participante de un mensaje directo visto por user.
func (m Message) Peer(user string) string {
	if m.Sender == user {
		return m.Receiver
	}
	return m.Sender
}

// Newer indica si m es posterior a other segun (timestamp, id).
func (m Message) Newer(other Message) bool {
	if m.Timestamp != other.Timestamp {
		return m.Timestamp > other.Timestamp
	}
	return m.ID > other.ID
}
