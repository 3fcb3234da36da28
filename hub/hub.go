// Package hub fans real-time events out to WebSocket connections grouped by topic.
package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/notification-hub/utils"
)

// Event types
const (
	EventSubscribed = "subscription_confirmed"
	EventPong       = "pong"
	EventError      = "error"
)

var (
	ErrHubClosed = errors.New("hub is closed")
	// ErrNoDelivery means every connection on the topic failed the write.
	ErrNoDelivery = errors.New("no subscriber accepted the message")
)

type Message struct {
	Event     string      `json:"event"`
	Topic     string      `json:"topic,omitempty"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Conn is the part of *websocket.Conn the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Client is one subscribed connection. Writes are serialized per client.
type Client struct {
	topic   string
	conn    Conn
	writeMu sync.Mutex
}

func (c *Client) Topic() string {
	return c.topic
}

func (c *Client) write(data []byte, timeout time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Send writes one event to this client only.
func (c *Client) Send(event string, data interface{}, timeout time.Duration) error {
	payload, err := encode(c.topic, event, data)
	if err != nil {
		return err
	}
	return c.write(payload, timeout)
}

type Hub struct {
	topics       map[string]map[*Client]struct{}
	mutex        sync.RWMutex
	closed       bool
	writeTimeout time.Duration
}

func New(writeTimeout time.Duration) *Hub {
	return &Hub{
		topics:       make(map[string]map[*Client]struct{}),
		writeTimeout: writeTimeout,
	}
}

func (h *Hub) WriteTimeout() time.Duration {
	return h.writeTimeout
}

// Subscribe registers conn on topic.
func (h *Hub) Subscribe(topic string, conn Conn) (*Client, error) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	client := &Client{topic: topic, conn: conn}
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[*Client]struct{})
	}
	h.topics[topic][client] = struct{}{}
	return client, nil
}

// Unsubscribe removes the client and closes its connection. Safe to call twice.
func (h *Hub) Unsubscribe(client *Client) {
	h.mutex.Lock()
	subscribers, ok := h.topics[client.topic]
	_, registered := subscribers[client]
	if ok && registered {
		delete(subscribers, client)
		if len(subscribers) == 0 {
			delete(h.topics, client.topic)
		}
	}
	h.mutex.Unlock()

	if registered {
		client.conn.Close()
	}
}

// Subscribers returns how many connections listen on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.topics[topic])
}

// Publish writes the event to every connection on topic. A topic without
// subscribers accepts the message. Connections that fail the write are dropped;
// an error is returned only if all of them failed.
func (h *Hub) Publish(topic, event string, data interface{}) error {
	payload, err := encode(topic, event, data)
	if err != nil {
		return err
	}

	h.mutex.RLock()
	if h.closed {
		h.mutex.RUnlock()
		return ErrHubClosed
	}
	clients := make([]*Client, 0, len(h.topics[topic]))
	for c := range h.topics[topic] {
		clients = append(clients, c)
	}
	h.mutex.RUnlock()

	if len(clients) == 0 {
		return nil
	}

	failed := 0
	for _, c := range clients {
		if err := c.write(payload, h.writeTimeout); err != nil {
			failed++
			utils.InfoLogger.WithFields(logrus.Fields{"topic": topic, "event": event}).
				WithError(err).Warn("Dropping real-time subscriber after failed write")
			h.Unsubscribe(c)
		}
	}
	if failed == len(clients) {
		return fmt.Errorf("publish %s to %s: %w", event, topic, ErrNoDelivery)
	}
	return nil
}

// Close disconnects every subscriber. Later publishes fail with ErrHubClosed.
func (h *Hub) Close() {
	h.mutex.Lock()
	topics := h.topics
	h.topics = make(map[string]map[*Client]struct{})
	h.closed = true
	h.mutex.Unlock()

	for _, subscribers := range topics {
		for c := range subscribers {
			c.conn.Close()
		}
	}
}

func encode(topic, event string, data interface{}) ([]byte, error) {
	payload, err := json.Marshal(Message{Event: event, Topic: topic, Data: data, Timestamp: time.Now()})
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", event, err)
	}
	return payload, nil
}
