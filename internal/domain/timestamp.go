package domain

import "time"

// TimestampLayout es el formato fijo de los timestamps de mensajes.
// Al ser de ancho fijo y con ceros a la izquierda, el orden lexicografico
// coincide con el cronologico.
const TimestampLayout = "2006-01-02 15:04:05"

const timestampLen = len(TimestampLayout)

// FormatTimestamp convierte un time.Time al formato fijo del store.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp interpreta un timestamp del store en la zona local.
func ParseTimestamp(ts string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, ts, time.Local)
}

// FormatTimeDisplay formatea el timestamp para la lista de conversaciones:
// "today HH:MM" si es del mismo dia que now, "MM-DD HH:MM" si no.
// Entradas mas cortas que el formato fijo se devuelven sin cambios.
func FormatTimeDisplay(ts string, now time.Time) string {
	if len(ts) < timestampLen {
		return ts
	}
	if sameDay(ts, now) {
		return "today " + ts[11:16]
	}
	return ts[5:7] + "-" + ts[8:10] + " " + ts[11:16]
}

// FormatMessageTime formatea el timestamp dentro de un historial:
// "HH:MM:SS" si es de hoy, "MM-DD HH:MM:SS" si no.
func FormatMessageTime(ts string, now time.Time) string {
	if len(ts) < timestampLen {
		return ts
	}
	if sameDay(ts, now) {
		return ts[11:19]
	}
	return ts[5:7] + "-" + ts[8:10] + " " + ts[11:19]
}

func sameDay(ts string, now time.Time) bool {
	return ts[:10] == now.Format("2006-01-02")
}
