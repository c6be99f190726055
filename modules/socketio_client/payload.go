package socketio_client

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vk/leafkit/internal/push"
)

// decodeMessage converts the first event argument into a push.Message. The
// gateway sends a JSON object, which the socket.io parser hands over as a
// generic map, so it is re-encoded and decoded into the typed struct. A
// missing sender is passed through as an empty From.
func decodeMessage(args []any) (push.Message, error) {
	var msg push.Message
	if len(args) == 0 || args[0] == nil {
		return msg, errors.New("message event carried no payload")
	}

	raw, err := toJSON(args[0])
	if err != nil {
		return msg, err
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg, fmt.Errorf("failed to decode message: %w", err)
	}
	return msg, nil
}

type tokenAck struct {
	Token     string `json:"token"`
	Error     string `json:"error"`
	Permanent bool   `json:"permanent"`
}

// parseTokenAck interprets the gateway's reply to a token request.
func parseTokenAck(args []any) (string, error) {
	if len(args) == 0 || args[0] == nil {
		return "", errors.New("token acknowledgement carried no payload")
	}

	raw, err := toJSON(args[0])
	if err != nil {
		return "", err
	}
	var ack tokenAck
	if err := json.Unmarshal(raw, &ack); err != nil {
		return "", fmt.Errorf("failed to decode token acknowledgement: %w", err)
	}

	if ack.Error != "" {
		err := fmt.Errorf("gateway refused token request: %s", ack.Error)
		if ack.Permanent {
			return "", push.Permanent(err)
		}
		return "", err
	}
	return ack.Token, nil
}

func toJSON(v any) ([]byte, error) {
	switch t := v.(type) {
	case []byte:
		return t, nil
	case string:
		return []byte(t), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return raw, nil
}
