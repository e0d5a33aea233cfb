// Package chat implements the realtime chat session: send/receive over a
// publish/subscribe broker, typing indicators with auto-expiry, presence,
// and provisional-message reconciliation by id.
package chat

import (
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
)

// Unsubscriber detaches one subscription. *nats.Subscription satisfies it.
type Unsubscriber interface {
	Unsubscribe() error
}

// Broker is the realtime backend seam: keyed publishes and ordered
// subscriptions on hierarchical subjects, plus a connectivity indicator.
type Broker interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte)) (Unsubscriber, error)
	// OnConnectionChange registers a callback for connectivity transitions.
	// The callback may fire from the broker's own goroutine.
	OnConnectionChange(fn func(connected bool))
}

// subjectFor converts a hierarchical chat path plus a leaf into a broker
// subject: "chats/route-5" + "messages" → "chat.chats.route-5.messages".
func subjectFor(chatPath, leaf string) string {
	trimmed := strings.Trim(chatPath, "/")
	return "chat." + strings.ReplaceAll(trimmed, "/", ".") + "." + leaf
}

// NATSBroker adapts a NATS connection to the Broker seam.
type NATSBroker struct {
	conn *nats.Conn

	mu        sync.Mutex
	listeners []func(bool)
}

// NewNATSBroker wraps an established connection. It takes over the
// connection's disconnect/reconnect handlers to drive the connectivity
// indicator, so callers should not set their own.
func NewNATSBroker(conn *nats.Conn) *NATSBroker {
	b := &NATSBroker{conn: conn}
	conn.SetDisconnectErrHandler(func(_ *nats.Conn, _ error) { b.notify(false) })
	conn.SetReconnectHandler(func(_ *nats.Conn) { b.notify(true) })
	return b
}

// Publish sends a keyed write to the subject.
func (b *NATSBroker) Publish(subject string, data []byte) error {
	return b.conn.Publish(subject, data)
}

// Subscribe registers an ordered listener on the subject. NATS preserves
// per-subject publish order for a single connection, which is all the chat
// stream needs.
func (b *NATSBroker) Subscribe(subject string, handler func(data []byte)) (Unsubscriber, error) {
	return b.conn.Subscribe(subject, func(m *nats.Msg) { handler(m.Data) })
}

// OnConnectionChange registers a connectivity listener.
func (b *NATSBroker) OnConnectionChange(fn func(connected bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

func (b *NATSBroker) notify(connected bool) {
	b.mu.Lock()
	listeners := append(([]func(bool))(nil), b.listeners...)
	b.mu.Unlock()
	for _, fn := range listeners {
		fn(connected)
	}
}

var _ Broker = (*NATSBroker)(nil)
