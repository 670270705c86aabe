// Package mqtt carries favorite events over an MQTT broker: the server
// publishes them and the explorer CLI subscribes.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"rivergauge-server/internal/config"
	"rivergauge-server/internal/modules/favorites/types"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var ErrStopped = errors.New("mqtt client stopped")

// Options selects the broker and topic namespace.
type Options struct {
	Broker      string
	Port        int
	ClientID    string
	TopicPrefix string
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Broker:      cfg.MQTTBroker,
		Port:        cfg.MQTTPort,
		ClientID:    cfg.MQTTClientID,
		TopicPrefix: cfg.MQTTTopicPrefix,
	}
}

// EventTopic is the topic an event with the given action is published on.
func EventTopic(prefix string, action types.Action) string {
	return joinTopic(prefix, "favorites", string(action))
}

// EventFilter matches every favorite event topic under prefix.
func EventFilter(prefix string) string {
	return joinTopic(prefix, "favorites", "+")
}

func joinTopic(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}

// conn is the connect/stop bookkeeping shared by Publisher and Subscriber.
type conn struct {
	client    mqtt.Client
	opts      Options
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool

	stopCh   chan struct{}
	stopOnce sync.Once

	// onConnect runs after every (re)connect, e.g. to resubscribe.
	onConnect func()
}

func newConn(opts Options, logger *slog.Logger) *conn {
	if logger == nil {
		logger = slog.Default()
	}
	c := &conn{opts: opts, logger: logger, stopCh: make(chan struct{})}

	co := mqtt.NewClientOptions()
	co.AddBroker(fmt.Sprintf("tcp://%s:%d", opts.Broker, opts.Port))
	co.SetClientID(opts.ClientID)

	// Session settings
	co.SetCleanSession(true)

	co.SetAutoReconnect(true)
	co.SetConnectRetry(true)
	co.SetConnectRetryInterval(5 * time.Second)
	co.SetMaxReconnectInterval(60 * time.Second)

	// Keepalive / timeouts
	co.SetKeepAlive(30 * time.Second)
	co.SetPingTimeout(10 * time.Second)

	co.SetOnConnectHandler(func(_ mqtt.Client) {
		c.setConnected(true)
		logger.Info("mqtt connected", "broker", opts.Broker, "port", opts.Port)
		if c.onConnect != nil {
			c.onConnect()
		}
	})

	co.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		c.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	c.client = mqtt.NewClient(co)
	return c
}

// Connect waits for the initial connection, respecting ctx and Disconnect.
func (c *conn) Connect(ctx context.Context) error {
	select {
	case <-c.stopCh:
		return ErrStopped
	default:
	}

	if c.IsConnected() {
		return nil
	}

	token := c.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			c.client.Disconnect(0)
			return ctx.Err()
		case <-c.stopCh:
			c.client.Disconnect(0)
			return ErrStopped
		default:
		}
	}
}

func (c *conn) IsConnected() bool {
	c.mu.RLock()
	connected := c.connected
	c.mu.RUnlock()
	return connected && c.client.IsConnected()
}

// Disconnect is idempotent. After it, Connect returns ErrStopped.
func (c *conn) Disconnect() {
	c.stopOnce.Do(func() { close(c.stopCh) })

	// Paho quiesces in-flight work for the given ms.
	if c.client != nil {
		c.client.Disconnect(250)
	}

	c.setConnected(false)
	c.logger.Info("mqtt disconnected")
}

func (c *conn) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

// wait blocks until token completes, ctx ends or timeout passes.
func wait(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errors.New("timeout")
	}
}
