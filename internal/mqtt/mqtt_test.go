package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"rivergauge-server/internal/config"
	"rivergauge-server/internal/modules/favorites/types"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

type fakeToken struct {
	err  error
	done chan struct{}
}

func newToken(err error, complete bool) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	if complete {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }

func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient implements the calls the package makes; the rest panic.
type fakeClient struct {
	mqtt.Client
	connected  bool
	publishErr error
	hang       bool
	published  []published
}

func (f *fakeClient) IsConnected() bool { return f.connected }

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload any) mqtt.Token {
	f.published = append(f.published, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return newToken(f.publishErr, !f.hang)
}

func (f *fakeClient) Disconnect(uint) { f.connected = false }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPublisher(fc *fakeClient) *Publisher {
	p := NewPublisher(Options{Broker: "localhost", Port: 1883, ClientID: "test", TopicPrefix: "rivergauge"}, testLogger())
	p.client = fc
	p.setConnected(fc.connected)
	return p
}

func sampleEvent(action types.Action) types.Event {
	return types.Event{
		EventID:    uuid.New(),
		Action:     action,
		UserID:     "u1",
		SiteID:     "01646500",
		FavoriteID: "7",
		At:         time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestTopics(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{EventTopic("rivergauge", types.ActionAdded), "rivergauge/favorites/added"},
		{EventTopic("/a/b/", types.ActionRemoved), "a/b/favorites/removed"},
		{EventTopic("", types.ActionAdded), "favorites/added"},
		{EventFilter("rivergauge"), "rivergauge/favorites/+"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("topic=%q want=%q", tt.got, tt.want)
		}
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.Config{MQTTBroker: "broker", MQTTPort: 1884, MQTTClientID: "id", MQTTTopicPrefix: "p"})
	if opts != (Options{Broker: "broker", Port: 1884, ClientID: "id", TopicPrefix: "p"}) {
		t.Fatalf("opts=%+v", opts)
	}
}

func TestPublishFavoriteEvent(t *testing.T) {
	fc := &fakeClient{connected: true}
	p := newTestPublisher(fc)
	ev := sampleEvent(types.ActionRemoved)

	if err := p.PublishFavoriteEvent(context.Background(), ev); err != nil {
		t.Fatalf("PublishFavoriteEvent: %v", err)
	}
	if len(fc.published) != 1 {
		t.Fatalf("published=%d want=1", len(fc.published))
	}
	msg := fc.published[0]
	if msg.topic != "rivergauge/favorites/removed" || msg.qos != 1 || msg.retained {
		t.Fatalf("msg=%+v", msg)
	}
	var got types.Event
	if err := json.Unmarshal(msg.payload, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got.EventID != ev.EventID || got.FavoriteID != "7" || !got.At.Equal(ev.At) {
		t.Fatalf("got=%+v want=%+v", got, ev)
	}
}

func TestPublishFavoriteEvent_notConnected(t *testing.T) {
	fc := &fakeClient{connected: false}
	p := newTestPublisher(fc)
	if err := p.PublishFavoriteEvent(context.Background(), sampleEvent(types.ActionAdded)); err == nil {
		t.Fatal("want error when not connected")
	}
	if len(fc.published) != 0 {
		t.Fatalf("published=%d want=0", len(fc.published))
	}
}

func TestPublishFavoriteEvent_brokerError(t *testing.T) {
	boom := errors.New("not authorized")
	p := newTestPublisher(&fakeClient{connected: true, publishErr: boom})
	if err := p.PublishFavoriteEvent(context.Background(), sampleEvent(types.ActionAdded)); !errors.Is(err, boom) {
		t.Fatalf("err=%v want=%v", err, boom)
	}
}

func TestPublishFavoriteEvent_contextCanceled(t *testing.T) {
	p := newTestPublisher(&fakeClient{connected: true, hang: true})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.PublishFavoriteEvent(ctx, sampleEvent(types.ActionAdded)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v want context.Canceled", err)
	}
}

func TestConnect_afterDisconnect(t *testing.T) {
	p := newTestPublisher(&fakeClient{})
	p.Disconnect()
	p.Disconnect()
	if err := p.Connect(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("err=%v want ErrStopped", err)
	}
}

func TestDecodeEvent(t *testing.T) {
	valid, _ := json.Marshal(sampleEvent(types.ActionAdded))
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{name: "valid", payload: string(valid)},
		{name: "not json", payload: "{", wantErr: true},
		{name: "unknown action", payload: `{"action":"renamed","favorite_id":"1","at":"2026-04-01T00:00:00Z"}`, wantErr: true},
		{name: "missing favorite id", payload: `{"action":"added","at":"2026-04-01T00:00:00Z"}`, wantErr: true},
		{name: "missing time", payload: `{"action":"added","favorite_id":"1"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeEvent([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscriber_handleMessage(t *testing.T) {
	s := NewSubscriber(Options{Broker: "localhost", Port: 1883, ClientID: "test", TopicPrefix: "rivergauge"}, testLogger())
	var got []types.Event
	s.SetMessageHandler(func(ev types.Event) error {
		got = append(got, ev)
		return errors.New("handler errors are logged, not fatal")
	})

	valid, _ := json.Marshal(sampleEvent(types.ActionAdded))
	s.handleMessage("rivergauge/favorites/added", valid)
	s.handleMessage("rivergauge/favorites/added", []byte("garbage"))

	if len(got) != 1 || got[0].Action != types.ActionAdded {
		t.Fatalf("got=%+v want one added event", got)
	}
}
