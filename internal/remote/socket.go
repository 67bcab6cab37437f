package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Message types spoken on the device socket.
const (
	messageGet             = "get"
	messageInitialSettings = "initial-settings"
	messageSettingsUpdate  = "settings-update"
)

type socketMessage struct {
	Type    string `json:"type"`
	Request string `json:"request,omitempty"`
}

// SocketSource talks to the device server over a single websocket: one
// "get initial-settings" request and a stream of "settings-update" pushes.
type SocketSource struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	initial chan map[string]any
	updates chan map[string]any
	closed  chan struct{}
	done    chan struct{}

	closeOnce sync.Once
}

// DialSocket connects to url and starts reading server messages.
func DialSocket(ctx context.Context, url string) (*SocketSource, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial settings socket: %w", err)
	}
	source := &SocketSource{
		conn:    conn,
		initial: make(chan map[string]any, 1),
		updates: make(chan map[string]any, 16),
		closed:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go source.readLoop()
	return source, nil
}

// FetchInitial asks the server for the current settings and waits for the
// answer.
func (source *SocketSource) FetchInitial(ctx context.Context) (map[string]any, error) {
	source.writeMu.Lock()
	err := source.conn.WriteJSON(socketMessage{Type: messageGet, Request: messageInitialSettings})
	source.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("request initial settings: %w", err)
	}

	select {
	case raw := <-source.initial:
		return raw, nil
	case <-source.done:
		return nil, ErrNoResponse
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Subscribe returns the update stream. The socket is closed when ctx is
// cancelled, which also closes the stream.
func (source *SocketSource) Subscribe(ctx context.Context) (<-chan map[string]any, error) {
	go func() {
		select {
		case <-ctx.Done():
			_ = source.Close()
		case <-source.done:
		}
	}()
	return source.updates, nil
}

// Close shuts the socket down.
func (source *SocketSource) Close() error {
	var err error
	source.closeOnce.Do(func() {
		close(source.closed)
		source.writeMu.Lock()
		_ = source.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		source.writeMu.Unlock()
		err = source.conn.Close()
	})
	return err
}

func (source *SocketSource) readLoop() {
	defer close(source.done)
	defer close(source.updates)

	for {
		_, data, err := source.conn.ReadMessage()
		if err != nil {
			select {
			case <-source.closed:
			default:
				log.Warn().Err(err).Msg("settings socket closed")
			}
			return
		}

		var header socketMessage
		if err := json.Unmarshal(data, &header); err != nil {
			log.Warn().Err(err).Msg("dropping malformed socket message")
			continue
		}
		raw, err := decodePayload(data)
		if err != nil {
			log.Warn().Err(err).Str("type", header.Type).Msg("dropping malformed socket message")
			continue
		}

		switch header.Type {
		case messageInitialSettings:
			select {
			case source.initial <- raw:
			default:
				log.Debug().Msg("ignoring duplicate initial settings")
			}
		case messageSettingsUpdate:
			if raw == nil {
				continue
			}
			select {
			case source.updates <- raw:
			case <-source.closed:
				return
			}
		default:
			log.Debug().Str("type", header.Type).Msg("ignoring socket message")
		}
	}
}
