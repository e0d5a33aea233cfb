package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waymarkhq/waymark/internal/chat"
	"github.com/waymarkhq/waymark/internal/domain"
	"github.com/waymarkhq/waymark/internal/handler"
)

// mockChatHistory doubles as the REST history dependency and the session's
// persistence store, mirroring how the real chat message repo satisfies both.
type mockChatHistory struct {
	mu         sync.Mutex
	created    []domain.ChatMessage
	listRecent func(ctx context.Context, chatPath string, limit int) ([]domain.ChatMessage, error)
}

func (m *mockChatHistory) Create(ctx context.Context, msg domain.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, msg)
	return nil
}

func (m *mockChatHistory) ListRecent(ctx context.Context, chatPath string, limit int) ([]domain.ChatMessage, error) {
	return m.listRecent(ctx, chatPath, limit)
}

var (
	_ handler.ChatHistory = (*mockChatHistory)(nil)
	_ chat.HistoryStore   = (*mockChatHistory)(nil)
)

// loopbackBroker delivers every publish synchronously to its own subscribers,
// standing in for a NATS connection.
type loopbackBroker struct {
	mu   sync.Mutex
	subs map[string][]func([]byte)
}

func newLoopbackBroker() *loopbackBroker {
	return &loopbackBroker{subs: make(map[string][]func([]byte))}
}

func (b *loopbackBroker) Publish(subject string, data []byte) error {
	b.mu.Lock()
	handlers := append(([]func([]byte))(nil), b.subs[subject]...)
	b.mu.Unlock()
	for _, h := range handlers {
		h(data)
	}
	return nil
}

type noopUnsub struct{}

func (noopUnsub) Unsubscribe() error { return nil }

func (b *loopbackBroker) Subscribe(subject string, fn func(data []byte)) (chat.Unsubscriber, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[subject] = append(b.subs[subject], fn)
	return noopUnsub{}, nil
}

func (b *loopbackBroker) OnConnectionChange(fn func(connected bool)) {}

var _ chat.Broker = (*loopbackBroker)(nil)

// clientFrame mirrors the websocket frame shape from the client's side.
type clientFrame struct {
	Type        string               `json:"type"`
	Messages    []domain.ChatMessage `json:"messages,omitempty"`
	Content     string               `json:"content,omitempty"`
	MessageType string               `json:"message_type,omitempty"`
	IsTyping    bool                 `json:"is_typing,omitempty"`
}

func chatRouter(history *mockChatHistory, broker chat.Broker) http.Handler {
	deps := handler.Deps{Broker: broker}
	if history != nil {
		deps.Chat = history
		deps.Store = history
	}
	return handler.NewServer(deps).Routes()
}

// ---- history endpoint ------------------------------------------------------

func TestChatHistoryList_OK(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	history := &mockChatHistory{
		listRecent: func(_ context.Context, chatPath string, limit int) ([]domain.ChatMessage, error) {
			assert.Equal(t, "chats/route-5", chatPath)
			assert.Equal(t, 50, limit)
			// Newest first, as the repo returns them.
			return []domain.ChatMessage{
				{ID: "m2", Content: "second", Timestamp: base.Add(time.Minute)},
				{ID: "m1", Content: "first", Timestamp: base},
			}, nil
		},
	}
	h := chatRouter(history, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history?path=/chats/route-5/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Messages []domain.ChatMessage `json:"messages"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "m1", body.Messages[0].ID, "oldest message first")
	assert.Equal(t, "m2", body.Messages[1].ID)
}

func TestChatHistoryList_MissingPath(t *testing.T) {
	h := chatRouter(&mockChatHistory{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatEndpoints_NotConfigured(t *testing.T) {
	h := chatRouter(nil, nil)

	for _, path := range []string{
		"/api/chat/history?path=chats/route-5",
		"/api/chat/ws?path=chats/route-5&user_id=u1",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

// ---- websocket endpoint ----------------------------------------------------

func TestChatWebSocket_MissingParams(t *testing.T) {
	h := chatRouter(&mockChatHistory{}, newLoopbackBroker())

	req := httptest.NewRequest(http.MethodGet, "/api/chat/ws?path=chats/route-5", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code, "user_id is required")
}

// TestChatWebSocket_HistoryAndSend runs a real upgrade against an httptest
// server: the client receives the persisted history on connect, then sends a
// message and sees it rendered back.
func TestChatWebSocket_HistoryAndSend(t *testing.T) {
	history := &mockChatHistory{
		listRecent: func(_ context.Context, _ string, _ int) ([]domain.ChatMessage, error) {
			return []domain.ChatMessage{
				{ID: "seed", Content: "earlier", Timestamp: time.Now().UTC().Add(-time.Hour)},
			}, nil
		},
	}
	srv := httptest.NewServer(chatRouter(history, newLoopbackBroker()))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"/api/chat/ws?path=chats/route-5&user_id=u1&user_name=Ann"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	// Connect renders the history before the read loop starts.
	waitForMessage(t, conn, "earlier")

	err = conn.WriteJSON(clientFrame{Type: "send", Content: "hello from Ann", MessageType: "text"})
	require.NoError(t, err)

	got := waitForMessage(t, conn, "hello from Ann")
	assert.Equal(t, "u1", got.SenderID)
	assert.Equal(t, domain.MessageText, got.Type)

	history.mu.Lock()
	defer history.mu.Unlock()
	require.Len(t, history.created, 1, "sent message is persisted")
	assert.Equal(t, "hello from Ann", history.created[0].Content)
}

// waitForMessage reads frames until a "messages" frame contains a message
// with the given content, returning that message.
func waitForMessage(t *testing.T, conn *websocket.Conn, content string) domain.ChatMessage {
	t.Helper()
	for i := 0; i < 10; i++ {
		var frame clientFrame
		require.NoError(t, conn.ReadJSON(&frame), "reading frame while waiting for %q", content)
		if frame.Type != "messages" {
			continue
		}
		for _, m := range frame.Messages {
			if m.Content == content {
				return m
			}
		}
	}
	t.Fatalf("no messages frame containing %q", content)
	return domain.ChatMessage{}
}
