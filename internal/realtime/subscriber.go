// Package realtime subscribes to a team's push channel and decodes change events.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"retroquest-cli/internal/model"

	"github.com/gorilla/websocket"
)

type Kind string

const (
	KindThought     Kind = "thought"
	KindActionItem  Kind = "action-item"
	KindColumnTitle Kind = "column-title"
	KindEndRetro    Kind = "end-retro"
)

type Action string

const (
	ActionPut    Action = "put"
	ActionDelete Action = "delete"
)

// Event is one decoded push message. Exactly one payload field is set for thought,
// action-item and column-title events; end-retro carries none.
type Event struct {
	Kind   Kind
	Action Action

	Thought    *model.Thought
	ActionItem *model.ActionItem
	Column     *model.Column
}

type envelope struct {
	Type    string          `json:"type"`
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// Decode parses a raw socket message.
func Decode(b []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	ev := Event{Kind: Kind(env.Type), Action: Action(env.Action)}
	if ev.Action == "" {
		ev.Action = ActionPut
	}
	if ev.Action != ActionPut && ev.Action != ActionDelete {
		return Event{}, fmt.Errorf("decode event: unknown action %q", env.Action)
	}
	switch ev.Kind {
	case KindThought:
		var th model.Thought
		if err := json.Unmarshal(env.Payload, &th); err != nil {
			return Event{}, fmt.Errorf("decode thought event: %w", err)
		}
		ev.Thought = &th
	case KindActionItem:
		var a model.ActionItem
		if err := json.Unmarshal(env.Payload, &a); err != nil {
			return Event{}, fmt.Errorf("decode action-item event: %w", err)
		}
		ev.ActionItem = &a
	case KindColumnTitle:
		var c model.Column
		if err := json.Unmarshal(env.Payload, &c); err != nil {
			return Event{}, fmt.Errorf("decode column-title event: %w", err)
		}
		ev.Column = &c
	case KindEndRetro:
	default:
		return Event{}, fmt.Errorf("decode event: unknown type %q", env.Type)
	}
	return ev, nil
}

// Subscriber keeps a WebSocket connection open and reconnects with backoff until its
// context is cancelled.
type Subscriber struct {
	URL    string
	Header http.Header
	Logger *slog.Logger

	Dialer     *websocket.Dialer
	MinBackoff time.Duration
	MaxBackoff time.Duration

	// Connected, when set, is called after every successful (re)connect.
	Connected func()
}

func New(url string, header http.Header) *Subscriber {
	return &Subscriber{
		URL:        url,
		Header:     header,
		Logger:     slog.Default(),
		Dialer:     websocket.DefaultDialer,
		MinBackoff: 500 * time.Millisecond,
		MaxBackoff: 30 * time.Second,
	}
}

// ErrStopped is reported when the subscription ends because its context was cancelled.
var ErrStopped = errors.New("realtime: subscription stopped")

// Run streams events into out until ctx is done. Undecodable messages are logged and
// skipped. Run closes out before returning.
func (s *Subscriber) Run(ctx context.Context, out chan<- Event) error {
	defer close(out)
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	minBackoff := s.MinBackoff
	if minBackoff <= 0 {
		minBackoff = 500 * time.Millisecond
	}
	backoff := minBackoff
	for {
		err := s.session(ctx, out, log, func() { backoff = minBackoff })
		if ctx.Err() != nil {
			return ErrStopped
		}
		log.Warn("realtime disconnected", "url", s.URL, "err", err, "retry_in", backoff)
		select {
		case <-ctx.Done():
			return ErrStopped
		case <-time.After(backoff):
		}
		backoff *= 2
		if s.MaxBackoff > 0 && backoff > s.MaxBackoff {
			backoff = s.MaxBackoff
		}
	}
}

func (s *Subscriber) session(ctx context.Context, out chan<- Event, log *slog.Logger, reset func()) error {
	d := s.Dialer
	if d == nil {
		d = websocket.DefaultDialer
	}
	conn, resp, err := d.DialContext(ctx, s.URL, s.Header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %s: %w", s.URL, resp.Status, err)
		}
		return fmt.Errorf("dial %s: %w", s.URL, err)
	}
	reset()
	log.Info("realtime connected", "url", s.URL)
	if s.Connected != nil {
		s.Connected()
	}

	var once sync.Once
	closeConn := func() { once.Do(func() { _ = conn.Close() }) }
	defer closeConn()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			closeConn()
		case <-stop:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		ev, err := Decode(msg)
		if err != nil {
			log.Warn("realtime event skipped", "err", err)
			continue
		}
		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
