package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"rivergauge-server/internal/modules/favorites/types"
)

const publishTimeout = 5 * time.Second

// Publisher sends favorite events to <prefix>/favorites/<action>.
type Publisher struct {
	*conn
}

func NewPublisher(opts Options, logger *slog.Logger) *Publisher {
	return &Publisher{conn: newConn(opts, logger)}
}

// PublishFavoriteEvent publishes ev with QoS 1, not retained.
func (p *Publisher) PublishFavoriteEvent(ctx context.Context, ev types.Event) error {
	if !p.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	topic := EventTopic(p.opts.TopicPrefix, ev.Action)
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	token := p.client.Publish(topic, 1, false, data)
	if err := wait(ctx, token, publishTimeout); err != nil {
		p.logger.Error("failed to publish favorite event", "topic", topic, "error", err)
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	p.logger.Debug("published favorite event",
		"topic", topic,
		"event_id", ev.EventID,
		"favorite_id", ev.FavoriteID,
	)
	return nil
}
