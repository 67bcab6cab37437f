package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Default subjects used by the device server.
const (
	DefaultInitialSubject = "pomodoro.settings.initial"
	DefaultUpdateSubject  = "pomodoro.settings.update"
)

const (
	natsMaxReconnects = -1
	natsReconnectWait = 2 * time.Second
)

// natsConn is the part of *nats.Conn the source needs.
type natsConn interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
	ChanSubscribe(subj string, ch chan *nats.Msg) (*nats.Subscription, error)
}

// NATSSource fetches settings by request/reply and receives pushes on a
// subject.
type NATSSource struct {
	conn           natsConn
	initialSubject string
	updateSubject  string
	timeout        time.Duration
}

// DialNATS connects to a NATS server, reconnecting for as long as the widget
// runs.
func DialNATS(url string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("pomodoro-widget"),
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// NewNATSSource creates a source on conn. Empty subjects use the defaults.
func NewNATSSource(conn natsConn, initialSubject, updateSubject string, timeout time.Duration) *NATSSource {
	if initialSubject == "" {
		initialSubject = DefaultInitialSubject
	}
	if updateSubject == "" {
		updateSubject = DefaultUpdateSubject
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NATSSource{
		conn:           conn,
		initialSubject: initialSubject,
		updateSubject:  updateSubject,
		timeout:        timeout,
	}
}

// FetchInitial requests the current settings.
func (source *NATSSource) FetchInitial(ctx context.Context) (map[string]any, error) {
	requestCtx, cancel := context.WithTimeout(ctx, source.timeout)
	defer cancel()

	msg, err := source.conn.RequestWithContext(requestCtx, source.initialSubject, []byte(`{"type":"get","request":"initial-settings"}`))
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", source.initialSubject, err)
	}
	return decodePayload(msg.Data)
}

// Subscribe forwards decoded pushes until ctx is cancelled.
func (source *NATSSource) Subscribe(ctx context.Context) (<-chan map[string]any, error) {
	msgs := make(chan *nats.Msg, 16)
	sub, err := source.conn.ChanSubscribe(source.updateSubject, msgs)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", source.updateSubject, err)
	}

	out := make(chan map[string]any, 4)
	go func() {
		defer close(out)
		defer func() {
			if sub != nil {
				_ = sub.Unsubscribe()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				raw, err := decodePayload(msg.Data)
				if err != nil {
					log.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping settings update")
					continue
				}
				if raw == nil {
					continue
				}
				select {
				case out <- raw:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
