package push

import (
	"context"
	"strconv"

	"github.com/vk/leafkit/internal/ctxlog"
	"github.com/vk/leafkit/internal/metrics"
)

// Receiver is the observability hook for incoming push messages. It has no
// state, so duplicate or reordered deliveries are harmless.
type Receiver struct{}

// NewReceiver creates a Receiver.
func NewReceiver() *Receiver {
	return &Receiver{}
}

// Handle logs the sender and, when present, the data payload. It writes one
// log line for an empty payload and two otherwise.
func (r *Receiver) Handle(ctx context.Context, msg Message) {
	logger := ctxlog.FromContext(ctx).With("component", "receiver")
	hasData := len(msg.Data) > 0
	metrics.MessagesReceived.WithLabelValues(strconv.FormatBool(hasData)).Inc()

	logger.Info("Push message received.", "from", msg.From)
	if hasData {
		logger.Info("Push message data payload.", "data", FormatData(msg.Data))
	}
}
