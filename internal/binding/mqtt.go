package binding

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Subscriber is the part of an MQTT client a binding needs.
type Subscriber interface {
	Subscribe(topic string, handler paho.MessageHandler) error
}

// Client wraps the Paho MQTT client.
type Client struct {
	client paho.Client
	broker string
	mu     sync.Mutex
}

// NewClient creates a client for broker but does not connect.
func NewClient(broker, clientID string) *Client {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	return &Client{client: paho.NewClient(opts), broker: broker}
}

// Connect attempts to connect to the broker without blocking indefinitely.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	token := c.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqtt connect to %s: timeout", c.broker)
	}
	return token.Error()
}

// Subscribe subscribes to topic at QoS 1.
func (c *Client) Subscribe(topic string, handler paho.MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	token := c.client.Subscribe(topic, 1, handler)
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqtt subscribe %s: timeout", topic)
	}
	return token.Error()
}

// Disconnect cleanly disconnects from the broker.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.client.Disconnect(1000)
}

func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// Topic maps an MQTT topic to a value name. Field selects a key of a JSON
// object payload; empty uses the whole payload.
type Topic struct {
	Topic string
	Name  string
	Field string
}

// ParseTopic parses "topic=name" or "topic#field=name".
func ParseTopic(s string) (Topic, error) {
	lhs, name, ok := strings.Cut(s, "=")
	if !ok || lhs == "" || name == "" {
		return Topic{}, fmt.Errorf("invalid mqtt binding %q, want topic[#field]=name", s)
	}
	topic, field, _ := strings.Cut(lhs, "#")
	return Topic{Topic: topic, Name: name, Field: field}, nil
}

// MQTT feeds MQTT messages into a Store.
type MQTT struct {
	mu         sync.Mutex
	sub        Subscriber
	store      *Store
	subscribed map[string]bool
}

func NewMQTT(sub Subscriber, store *Store) *MQTT {
	return &MQTT{sub: sub, store: store, subscribed: make(map[string]bool)}
}

// Bind subscribes to t.Topic. Binding the same topic twice is a no-op.
func (m *MQTT) Bind(t Topic) error {
	m.mu.Lock()
	key := t.Topic + "#" + t.Field + "=" + t.Name
	if m.subscribed[key] {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	if err := m.sub.Subscribe(t.Topic, m.handler(t)); err != nil {
		return fmt.Errorf("failed to bind %s: %w", t.Topic, err)
	}

	m.mu.Lock()
	m.subscribed[key] = true
	m.mu.Unlock()
	log.Printf("mqtt: bound %s to %s", t.Topic, t.Name)
	return nil
}

func (m *MQTT) handler(t Topic) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		v, err := decodePayload(msg.Payload(), t.Field)
		if err != nil {
			log.Printf("mqtt: %s: %v", msg.Topic(), err)
			return
		}
		m.store.Set(t.Name, v)
	}
}

// decodePayload returns a scalar: JSON numbers, strings and booleans as
// such, anything that is not JSON as its raw text.
func decodePayload(payload []byte, field string) (any, error) {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		if field != "" {
			return nil, fmt.Errorf("field %q requested from non-JSON payload", field)
		}
		return strings.TrimSpace(string(payload)), nil
	}
	if field != "" {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field %q requested from non-object payload", field)
		}
		if v, ok = obj[field]; !ok {
			return nil, fmt.Errorf("payload has no field %q", field)
		}
	}
	switch v.(type) {
	case float64, string, bool:
		return v, nil
	case nil:
		return "", nil
	}
	raw, _ := json.Marshal(v)
	return string(raw), nil
}
