package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"rivergauge-server/internal/modules/favorites/types"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Subscriber receives favorite events from every action topic under the
// configured prefix.
type Subscriber struct {
	*conn

	// MessageHandler is called for each valid event.
	MessageHandler func(ev types.Event) error
}

func NewSubscriber(opts Options, logger *slog.Logger) *Subscriber {
	s := &Subscriber{conn: newConn(opts, logger)}
	// Clean sessions drop subscriptions on reconnect.
	s.conn.onConnect = func() {
		if err := s.subscribe(); err != nil {
			s.logger.Error("mqtt resubscribe failed", "error", err)
		}
	}
	return s
}

func (s *Subscriber) SetMessageHandler(handler func(ev types.Event) error) {
	s.MessageHandler = handler
}

func (s *Subscriber) subscribe() error {
	topic := EventFilter(s.opts.TopicPrefix)
	qos := byte(1)

	token := s.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if err := wait(context.Background(), token, 5*time.Second); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	s.logger.Info("subscribed to mqtt topic", "topic", topic, "qos", qos)
	return nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	ev, err := decodeEvent(payload)
	if err != nil {
		s.logger.Warn("invalid favorite event",
			"topic", topic,
			"error", err,
			"payload", string(payload),
		)
		return
	}

	if s.MessageHandler != nil {
		if err := s.MessageHandler(ev); err != nil {
			s.logger.Error("message handler failed",
				"topic", topic,
				"event_id", ev.EventID,
				"error", err,
			)
		}
	}
}

func decodeEvent(payload []byte) (types.Event, error) {
	var ev types.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return types.Event{}, fmt.Errorf("parse event: %w", err)
	}
	switch ev.Action {
	case types.ActionAdded, types.ActionRemoved:
	default:
		return types.Event{}, fmt.Errorf("unknown action %q", ev.Action)
	}
	if ev.FavoriteID == "" {
		return types.Event{}, fmt.Errorf("favorite_id is required")
	}
	if ev.At.IsZero() {
		return types.Event{}, fmt.Errorf("at is required")
	}
	return ev, nil
}

// Disconnect unsubscribes before closing the connection.
func (s *Subscriber) Disconnect() {
	if s.client != nil && s.IsConnected() {
		token := s.client.Unsubscribe(EventFilter(s.opts.TopicPrefix))
		token.WaitTimeout(2 * time.Second)
	}
	s.conn.Disconnect()
}
