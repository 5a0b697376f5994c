package binding

import (
	"sync"
	"testing"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type mockSubscriber struct {
	mu            sync.Mutex
	subscriptions map[string][]paho.MessageHandler
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{subscriptions: make(map[string][]paho.MessageHandler)}
}

func (m *mockSubscriber) Subscribe(topic string, handler paho.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions[topic] = append(m.subscriptions[topic], handler)
	return nil
}

func (m *mockSubscriber) simulate(topic string, payload string) {
	m.mu.Lock()
	handlers := m.subscriptions[topic]
	m.mu.Unlock()
	for _, h := range handlers {
		h(nil, &mockMessage{topic: topic, payload: []byte(payload)})
	}
}

type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Duplicate() bool   { return false }
func (m *mockMessage) Qos() byte         { return 1 }
func (m *mockMessage) Retained() bool    { return false }
func (m *mockMessage) Topic() string     { return m.topic }
func (m *mockMessage) MessageID() uint16 { return 0 }
func (m *mockMessage) Payload() []byte   { return m.payload }
func (m *mockMessage) Ack()              {}

func TestStoreVersions(t *testing.T) {
	s := NewStore()
	if s.Version() != 0 {
		t.Fatalf("new store version = %d", s.Version())
	}
	s.Set("a", 1)
	s.Set("b", "x")
	if s.Version() != 2 {
		t.Errorf("version = %d, want 2", s.Version())
	}
	s.Set("a", 1)
	if s.Version() != 2 {
		t.Errorf("setting an equal value bumped version to %d", s.Version())
	}
	s.Set("a", 2)
	if got := s.VersionOf("a"); got != 3 {
		t.Errorf("VersionOf(a) = %d, want 3", got)
	}
	if got := s.VersionOf("b", "missing"); got != 2 {
		t.Errorf("VersionOf(b, missing) = %d, want 2", got)
	}
}

func TestExpand(t *testing.T) {
	src := Static{"weather.temp": 21.5, "city": "Oslo", "up": true}
	got := Expand("{city}: {weather.temp}C {missing} {up}", src)
	want := "Oslo: 21.5C {missing} true"
	if got != want {
		t.Errorf("Expand = %q, want %q", got, want)
	}
	names := Placeholders("{a} and {b.c}")
	if len(names) != 2 || names[0] != "a" || names[1] != "b.c" {
		t.Errorf("Placeholders = %v", names)
	}
}

func TestParseTopic(t *testing.T) {
	tests := []struct {
		in      string
		want    Topic
		wantErr bool
	}{
		{"home/temp=temp", Topic{Topic: "home/temp", Name: "temp"}, false},
		{"sensors/1#level=tank.level", Topic{Topic: "sensors/1", Field: "level", Name: "tank.level"}, false},
		{"no-name", Topic{}, true},
		{"=x", Topic{}, true},
	}
	for _, tt := range tests {
		got, err := ParseTopic(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseTopic(%q) = %+v, %v", tt.in, got, err)
		}
	}
}

func TestMQTTBinding(t *testing.T) {
	sub := newMockSubscriber()
	store := NewStore()
	m := NewMQTT(sub, store)

	if err := m.Bind(Topic{Topic: "home/temp", Name: "temp"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Bind(Topic{Topic: "home/temp", Name: "temp"}); err != nil {
		t.Fatal(err)
	}
	if err := m.Bind(Topic{Topic: "tank", Field: "level", Name: "tank.level"}); err != nil {
		t.Fatal(err)
	}
	if n := len(sub.subscriptions["home/temp"]); n != 1 {
		t.Errorf("home/temp subscribed %d times, want 1", n)
	}

	sub.simulate("home/temp", "21")
	if v, ok := store.Lookup("temp"); !ok || v != float64(21) {
		t.Errorf("temp = %v (%T), want 21", v, v)
	}
	sub.simulate("home/temp", "warm today")
	if v, _ := store.Lookup("temp"); v != "warm today" {
		t.Errorf("temp = %v, want raw text", v)
	}

	sub.simulate("tank", `{"level": 7, "unit": "cm"}`)
	if v, _ := store.Lookup("tank.level"); v != float64(7) {
		t.Errorf("tank.level = %v, want 7", v)
	}
	before := store.Version()
	sub.simulate("tank", `{"unit": "cm"}`)
	if store.Version() != before {
		t.Error("payload without the bound field must not change the store")
	}
}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		payload string
		want    any
	}{
		{`true`, true},
		{`"text"`, "text"},
		{`null`, ""},
		{`[1,2]`, "[1,2]"},
		{`  plain  `, "plain"},
	}
	for _, tt := range tests {
		got, err := decodePayload([]byte(tt.payload), "")
		if err != nil || got != tt.want {
			t.Errorf("decodePayload(%q) = %v, %v; want %v", tt.payload, got, err, tt.want)
		}
	}
}
