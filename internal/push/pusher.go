// Package push subscribes to the API's realtime channel. It speaks the
// Pusher websocket protocol (version 7) directly over gorilla/websocket.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	protocolVersion = "7"
	clientName      = "tableside-go"
	clientVersion   = "1.0.0"

	// Used until the server announces its own activity timeout.
	defaultActivityTimeout = 120 * time.Second

	// Time allowed for the server to answer our ping.
	pongWait = 30 * time.Second

	writeWait = 10 * time.Second

	maxMessageSize = 64 << 10
)

// Protocol events.
const (
	eventConnectionEstablished = "pusher:connection_established"
	eventSubscribe             = "pusher:subscribe"
	eventPing                  = "pusher:ping"
	eventPong                  = "pusher:pong"
	eventError                 = "pusher:error"
	eventSubscriptionSucceeded = "pusher_internal:subscription_succeeded"
)

// Handler receives the payload of a subscribed event.
type Handler func(data json.RawMessage)

// Config locates the push service.
type Config struct {
	Key     string
	Cluster string
	// Endpoint overrides the URL derived from Key and Cluster.
	Endpoint       string
	ReconnectDelay time.Duration
}

// Client maintains one subscription connection at a time per Subscribe call.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	log    logrus.FieldLogger
}

// New creates a push client.
func New(cfg Config, log logrus.FieldLogger) *Client {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	return &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
		},
		log: log,
	}
}

// URL is the websocket endpoint the client dials.
func (c *Client) URL() string {
	if c.cfg.Endpoint != "" {
		return c.cfg.Endpoint
	}
	u := url.URL{
		Scheme: "wss",
		Host:   fmt.Sprintf("ws-%s.pusher.com", c.cfg.Cluster),
		Path:   "/app/" + c.cfg.Key,
	}
	q := u.Query()
	q.Set("protocol", protocolVersion)
	q.Set("client", clientName)
	q.Set("version", clientVersion)
	u.RawQuery = q.Encode()
	return u.String()
}

type frame struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Subscribe listens for event on channel and calls h for each occurrence
// until ctx is cancelled. Dropped connections are re-established after
// ReconnectDelay. Returns nil once ctx is done.
func (c *Client) Subscribe(ctx context.Context, channel, event string, h Handler) error {
	log := c.log.WithFields(logrus.Fields{"channel": channel, "event": event})
	for {
		err := c.session(ctx, channel, event, h, log)
		if ctx.Err() != nil {
			return nil
		}
		log.WithError(err).Warnf("push connection lost, reconnecting in %s", c.cfg.ReconnectDelay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.cfg.ReconnectDelay):
		}
	}
}

// session runs a single connection until it fails or ctx is done.
func (c *Client) session(ctx context.Context, channel, event string, h Handler, log logrus.FieldLogger) error {
	conn, _, err := c.dialer.DialContext(ctx, c.URL(), nil)
	if err != nil {
		return fmt.Errorf("dial push endpoint: %w", err)
	}
	defer conn.Close()

	var writeMu sync.Mutex
	send := func(f frame) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(f)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			writeMu.Lock()
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			writeMu.Unlock()
			conn.Close()
		case <-done:
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	activity := defaultActivityTimeout
	conn.SetReadDeadline(time.Now().Add(activity + pongWait))

	var pinger *time.Ticker
	defer func() {
		if pinger != nil {
			pinger.Stop()
		}
	}()
	pingErr := make(chan error, 1)

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			select {
			case perr := <-pingErr:
				return perr
			default:
			}
			return fmt.Errorf("read push frame: %w", err)
		}
		conn.SetReadDeadline(time.Now().Add(activity + pongWait))

		switch f.Event {
		case eventConnectionEstablished:
			var info struct {
				SocketID        string `json:"socket_id"`
				ActivityTimeout int    `json:"activity_timeout"`
			}
			if err := decodeData(f.Data, &info); err == nil && info.ActivityTimeout > 0 {
				activity = time.Duration(info.ActivityTimeout) * time.Second
				conn.SetReadDeadline(time.Now().Add(activity + pongWait))
			}
			log.WithField("socket_id", info.SocketID).Info("push connected")

			sub, _ := json.Marshal(map[string]string{"channel": channel})
			if err := send(frame{Event: eventSubscribe, Data: sub}); err != nil {
				return fmt.Errorf("subscribe: %w", err)
			}

			if pinger == nil {
				pinger = time.NewTicker(activity)
				go keepAlive(pinger, done, send, pingErr)
			}

		case eventSubscriptionSucceeded:
			log.Info("push subscribed")

		case eventPing:
			if err := send(frame{Event: eventPong, Data: json.RawMessage(`{}`)}); err != nil {
				return fmt.Errorf("pong: %w", err)
			}

		case eventPong:

		case eventError:
			log.WithField("data", string(f.Data)).Warn("push error frame")

		case event:
			if f.Channel != channel {
				continue
			}
			var payload json.RawMessage
			if err := decodeData(f.Data, &payload); err != nil {
				log.WithError(err).Warn("undecodable push payload")
				continue
			}
			h(payload)
		}
	}
}

func keepAlive(t *time.Ticker, done <-chan struct{}, send func(frame) error, errc chan<- error) {
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if err := send(frame{Event: eventPing, Data: json.RawMessage(`{}`)}); err != nil {
				select {
				case errc <- fmt.Errorf("ping: %w", err):
				default:
				}
				return
			}
		}
	}
}

// decodeData unwraps Pusher's event data, which is usually a JSON-encoded
// string holding the real JSON document.
func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errors.New("empty data")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = json.RawMessage(s)
	}
	if raw, ok := v.(*json.RawMessage); ok {
		if !json.Valid(data) {
			return errors.New("invalid json in data")
		}
		*raw = append((*raw)[:0], data...)
		return nil
	}
	return json.Unmarshal(data, v)
}
