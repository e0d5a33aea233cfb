package handler

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/waymarkhq/waymark/internal/chat"
	"github.com/waymarkhq/waymark/internal/domain"
)

// chatHistoryLimit caps how many messages the history endpoint returns.
const chatHistoryLimit = 50

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS middleware governs the HTTP surface; the websocket endpoint
		// accepts the same origins the browser already passed.
		return true
	},
}

// ChatHistoryList handles GET /api/chat/history?path=.
// Messages come back oldest first, ready for rendering.
func (s *Server) ChatHistoryList(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		respondServiceUnavailable(w, "chat is not configured")
		return
	}
	path := strings.Trim(r.URL.Query().Get("path"), "/")
	if path == "" {
		respondBadRequest(w, "path is required")
		return
	}

	msgs, err := s.chat.ListRecent(r.Context(), path, chatHistoryLimit)
	if err != nil {
		respondError(w, err)
		return
	}
	// ListRecent returns newest first; flip for display order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	respondJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// wsFrame is one frame in either direction on the chat socket.
// Server→client frames carry type "messages", "typing", "presence", or
// "connection"; client→server frames carry "send" or "typing".
type wsFrame struct {
	Type      string               `json:"type"`
	Messages  []domain.ChatMessage `json:"messages,omitempty"`
	Typing    *domain.TypingState  `json:"typing,omitempty"`
	Presence  *domain.Presence     `json:"presence,omitempty"`
	Connected *bool                `json:"connected,omitempty"`

	// Client fields.
	Content     string `json:"content,omitempty"`
	MessageType string `json:"message_type,omitempty"`
	IsTyping    bool   `json:"is_typing,omitempty"`
}

// wsView adapts a websocket connection to the chat.View interface. Writes are
// serialized with a mutex because gorilla/websocket allows only one
// concurrent writer.
type wsView struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (v *wsView) send(f wsFrame) {
	v.mu.Lock()
	defer v.mu.Unlock()
	//nolint:errcheck // a dead conn surfaces in the read loop
	v.conn.WriteJSON(f)
}

func (v *wsView) RenderMessages(msgs []domain.ChatMessage) {
	v.send(wsFrame{Type: "messages", Messages: msgs})
}

func (v *wsView) ShowTyping(t domain.TypingState) {
	v.send(wsFrame{Type: "typing", Typing: &t})
}

func (v *wsView) ShowPresence(p domain.Presence) {
	v.send(wsFrame{Type: "presence", Presence: &p})
}

func (v *wsView) ConnectionChanged(connected bool) {
	v.send(wsFrame{Type: "connection", Connected: &connected})
}

var _ chat.View = (*wsView)(nil)

// ChatWebSocket handles GET /api/chat/ws?path=&user_id=&user_name=.
// It upgrades to a websocket, opens a chat session against the broker, and
// bridges frames both ways until the client disconnects.
func (s *Server) ChatWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.broker == nil {
		respondServiceUnavailable(w, "chat is not configured")
		return
	}

	q := r.URL.Query()
	path := strings.Trim(q.Get("path"), "/")
	userID := q.Get("user_id")
	if path == "" || userID == "" {
		respondBadRequest(w, "path and user_id are required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	view := &wsView{conn: conn}
	session, err := chat.NewSession(chat.Config{
		Broker:   s.broker,
		View:     view,
		Store:    s.store,
		ChatPath: path,
		UserID:   userID,
		UserName: q.Get("user_name"),
		Logger:   s.log,
	})
	if err != nil {
		view.send(wsFrame{Type: "error", Content: err.Error()})
		return
	}
	if err := session.Init(r.Context()); err != nil {
		s.log.Error("chat session init failed", "path", path, "error", err)
		return
	}
	defer session.Destroy()

	if _, err := session.LoadHistory(r.Context(), chatHistoryLimit); err != nil {
		s.log.Warn("chat history load failed", "path", path, "error", err)
	}

	ctx := context.WithoutCancel(r.Context())
	for {
		var frame wsFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		switch frame.Type {
		case "send":
			typ := domain.MessageType(frame.MessageType)
			if _, err := session.SendMessage(ctx, frame.Content, typ, "", nil); err != nil {
				view.send(wsFrame{Type: "error", Content: unwrapMessage(err)})
			}
		case "typing":
			if err := session.SetTyping(frame.IsTyping); err != nil {
				s.log.Debug("typing publish failed", "error", err)
			}
		}
	}
}
