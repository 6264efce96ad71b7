// Package mqtt publishes readings and frames to a broker and subscribes to
// them for the viewers.
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqttlib "github.com/eclipse/paho.mqtt.golang"
)

// quiesce is the number of milliseconds to wait for existing work on disconnect.
const quiesce = 250

// ErrNotConnected is returned when publishing without a broker connection.
var ErrNotConnected = errors.New("mqtt: not connected")

// Message is one MQTT message.
type Message struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

// Publisher sends messages. Publish blocks until the broker acknowledged
// the message (for QoS > 0) or ctx is done.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// Subscriber delivers the messages published to a topic.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string, qos byte, fn func(Message)) error
}

// Options configure a broker connection.
type Options struct {
	Broker         string
	ClientID       string
	ConnectTimeout time.Duration
}

// Client is a paho client with blocking publish and reconnect. The broker
// forgets subscriptions of a clean session, so every subscription is
// replayed after a reconnect.
type Client struct {
	client  mqttlib.Client
	log     *slog.Logger
	timeout time.Duration

	mu   sync.Mutex
	subs []subscription
}

type subscription struct {
	topic   string
	qos     byte
	handler mqttlib.MessageHandler
}

// subscribeClient is the part of mqttlib.Client used to resubscribe.
type subscribeClient interface {
	Subscribe(topic string, qos byte, callback mqttlib.MessageHandler) mqttlib.Token
}

// Connect connects to the broker and waits for the connection.
func Connect(ctx context.Context, o Options) (*Client, error) {
	if o.Broker == "" {
		return nil, fmt.Errorf("mqtt: no broker")
	}
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	opts := mqttlib.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetConnectTimeout(o.ConnectTimeout).
		SetAutoReconnect(true)
	c := &Client{
		log:     slog.Default().With("component", "mqtt", "broker", o.Broker),
		timeout: o.ConnectTimeout,
	}
	opts.SetOnConnectHandler(func(cl mqttlib.Client) { c.resubscribe(cl) })
	opts.SetConnectionLostHandler(func(_ mqttlib.Client, err error) {
		c.log.Warn("connection lost", "err", err)
	})
	c.client = mqttlib.NewClient(opts)
	if err := wait(ctx, c.client.Connect()); err != nil {
		return nil, fmt.Errorf("mqtt: connect %s: %w", o.Broker, err)
	}
	c.log.Info("connected")
	return c, nil
}

// Publish sends msg, reconnecting first if the connection was lost.
func (c *Client) Publish(ctx context.Context, msg Message) error {
	if msg.Topic == "" {
		return nil
	}
	if !c.client.IsConnected() {
		c.log.Debug("broker isn't connected, reconnect it")
		if err := wait(ctx, c.client.Connect()); err != nil {
			return fmt.Errorf("%w: %v", ErrNotConnected, err)
		}
	}
	c.log.Debug("publishing", "topic", msg.Topic, "bytes", len(msg.Payload))
	if err := wait(ctx, c.client.Publish(msg.Topic, msg.QoS, msg.Retained, msg.Payload)); err != nil {
		return fmt.Errorf("mqtt: publish %s: %w", msg.Topic, err)
	}
	return nil
}

// Subscribe calls fn for every message on topic, also after reconnects.
func (c *Client) Subscribe(ctx context.Context, topic string, qos byte, fn func(Message)) error {
	return c.subscribe(ctx, c.client, topic, qos, fn)
}

func (c *Client) subscribe(ctx context.Context, cl subscribeClient, topic string, qos byte, fn func(Message)) error {
	sub := subscription{topic: topic, qos: qos, handler: func(_ mqttlib.Client, m mqttlib.Message) {
		fn(Message{Topic: m.Topic(), Payload: m.Payload(), QoS: m.Qos(), Retained: m.Retained()})
	}}
	if err := wait(ctx, cl.Subscribe(sub.topic, sub.qos, sub.handler)); err != nil {
		return fmt.Errorf("mqtt: subscribe %s: %w", topic, err)
	}
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	c.log.Info("subscribed", "topic", topic)
	return nil
}

// resubscribe replays the subscriptions on cl. paho calls it on its own
// goroutine after every successful (re)connect.
func (c *Client) resubscribe(cl subscribeClient) {
	c.mu.Lock()
	subs := append([]subscription(nil), c.subs...)
	c.mu.Unlock()
	for _, sub := range subs {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		err := wait(ctx, cl.Subscribe(sub.topic, sub.qos, sub.handler))
		cancel()
		if err != nil {
			c.log.Error("resubscribe", "topic", sub.topic, "err", err)
			continue
		}
		c.log.Info("resubscribed", "topic", sub.topic)
	}
}

// Disconnect ends the connection to the broker.
func (c *Client) Disconnect() {
	c.client.Disconnect(quiesce)
}

func wait(ctx context.Context, t mqttlib.Token) error {
	select {
	case <-t.Done():
		return t.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishJSON marshals v and publishes it to topic.
func PublishJSON(ctx context.Context, p Publisher, topic string, qos byte, retained bool, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("mqtt: marshal %s: %w", topic, err)
	}
	return p.Publish(ctx, Message{Topic: topic, Payload: b, QoS: qos, Retained: retained})
}

// Discard is a Publisher that drops every message. It is used when MQTT is
// disabled.
type Discard struct{}

func (Discard) Publish(context.Context, Message) error { return nil }

// Recorder is a Publisher that keeps messages in memory for tests.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
	Err  error // returned by Publish when set
}

func (r *Recorder) Publish(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.msgs = append(r.msgs, msg)
	return nil
}

// Messages returns the messages published so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

// Topic returns the messages published to topic.
func (r *Recorder) Topic(topic string) []Message {
	var out []Message
	for _, m := range r.Messages() {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}
