package push

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Message is a push message as delivered by the gateway: a sender identifier
// and a string-to-string data payload, which may be empty.
type Message struct {
	ID     string            `json:"id,omitempty"`
	From   string            `json:"from"`
	Data   map[string]string `json:"data,omitempty"`
	SentAt time.Time         `json:"sent_at,omitempty"`
}

// Handler is a callback invoked once per delivered message. The gateway owns
// delivery, so handlers may see duplicates or out-of-order messages.
type Handler func(ctx context.Context, msg Message)

// Fanout returns a Handler that calls each handler in order.
func Fanout(handlers ...Handler) Handler {
	return func(ctx context.Context, msg Message) {
		for _, h := range handlers {
			h(ctx, msg)
		}
	}
}

// FormatData renders a payload as {k=v, ...} with keys sorted, so log lines
// are stable across runs.
func FormatData(data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(data[k])
	}
	b.WriteByte('}')
	return b.String()
}
