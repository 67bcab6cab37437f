// Package remote delivers settings from the device server over NATS or a
// DeskThing-style websocket.
package remote

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoResponse is returned when the server closed before answering.
var ErrNoResponse = errors.New("no settings response")

// decodePayload parses a settings message. Server messages wrap settings in
// a "payload" field; bare settings objects are accepted too. Empty bodies and
// JSON null decode to a nil payload.
func decodePayload(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var message map[string]any
	if err := json.Unmarshal(data, &message); err != nil {
		return nil, fmt.Errorf("decode settings message: %w", err)
	}
	return unwrapPayload(message), nil
}

func unwrapPayload(message map[string]any) map[string]any {
	if message == nil {
		return nil
	}
	if inner, ok := message["payload"]; ok {
		payload, isMap := inner.(map[string]any)
		if !isMap {
			return nil
		}
		return payload
	}
	return message
}
