package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/waymarkhq/waymark/internal/domain"
	"github.com/waymarkhq/waymark/internal/media"
)

// TypingTimeout is how long a typing flag stays up before the session
// republishes "stopped typing" on the sender's behalf.
const TypingTimeout = 3 * time.Second

// View receives rendering updates: the deduplicated message list (replaced
// wholesale), typing indicators, presence, and connectivity changes.
type View interface {
	RenderMessages(messages []domain.ChatMessage)
	ShowTyping(state domain.TypingState)
	ShowPresence(p domain.Presence)
	ConnectionChanged(connected bool)
}

// HistoryStore persists messages so history loads survive restarts. The
// chat message repo satisfies this.
type HistoryStore interface {
	Create(ctx context.Context, msg domain.ChatMessage) error
	ListRecent(ctx context.Context, chatPath string, limit int) ([]domain.ChatMessage, error)
}

// Config wires a Session's collaborators. Broker is required; View, Store,
// and Media may be nil to disable rendering, history, and attachments
// respectively.
type Config struct {
	Broker   Broker
	View     View
	Store    HistoryStore
	Media    media.Store
	ChatPath string
	UserID   string
	UserName string
	Logger   *slog.Logger

	// TypingTimeout overrides the 3s default; tests shorten it.
	TypingTimeout time.Duration
}

// Session manages one user's connection to a chat path. Lifecycle: Init
// subscribes the streams and marks the user online, Destroy unsubscribes
// everything and stops timers.
//
// Outgoing messages render immediately as provisional entries before the
// broker echoes them back; reconciliation is by generated id, so the
// provisional and confirmed copies collapse to one rendering.
type Session struct {
	cfg Config
	log *slog.Logger

	mu          sync.Mutex
	messages    []domain.ChatMessage
	seen        map[string]bool
	sending     bool
	typingTimer *time.Timer
	subs        []Unsubscriber
	initialized bool
}

// NewSession constructs a Session; call Init before use.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Broker == nil {
		return nil, fmt.Errorf("chat.NewSession: broker is required")
	}
	if strings.Trim(cfg.ChatPath, "/") == "" {
		return nil, fmt.Errorf("%w: chat path is required", domain.ErrValidation)
	}
	if cfg.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	if cfg.TypingTimeout <= 0 {
		cfg.TypingTimeout = TypingTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Session{cfg: cfg, log: log, seen: make(map[string]bool)}, nil
}

// Init subscribes to the connection-state, message, typing, and presence
// streams, then marks the current user online.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return fmt.Errorf("chat.Session.Init: already initialized")
	}
	s.initialized = true
	s.mu.Unlock()

	s.cfg.Broker.OnConnectionChange(func(connected bool) {
		if s.cfg.View != nil {
			s.cfg.View.ConnectionChanged(connected)
		}
	})

	type stream struct {
		leaf    string
		handler func([]byte)
	}
	for _, st := range []stream{
		{"messages", s.handleMessage},
		{"typing", s.handleTyping},
		{"users", s.handlePresence},
	} {
		sub, err := s.cfg.Broker.Subscribe(subjectFor(s.cfg.ChatPath, st.leaf), st.handler)
		if err != nil {
			s.teardown()
			return fmt.Errorf("chat.Session.Init: subscribe %s: %w", st.leaf, err)
		}
		s.mu.Lock()
		s.subs = append(s.subs, sub)
		s.mu.Unlock()
	}

	return s.publishPresence(true)
}

// Destroy unsubscribes all streams, stops timers, and marks the user
// offline. Safe to call more than once.
func (s *Session) Destroy() {
	s.mu.Lock()
	wasInit := s.initialized
	s.initialized = false
	s.mu.Unlock()

	if wasInit {
		if err := s.publishPresence(false); err != nil {
			s.log.Debug("offline presence publish failed", "error", err)
		}
	}
	s.teardown()
}

func (s *Session) teardown() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	s.mu.Unlock()

	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			s.log.Debug("unsubscribe failed", "error", err)
		}
	}
}

// SendMessage publishes a message to the chat. At most one send may be in
// flight (domain.ErrBusy otherwise). A media attachment is uploaded first;
// the message record carries its URL. The outgoing message is rendered
// immediately as a provisional entry.
func (s *Session) SendMessage(ctx context.Context, text string, typ domain.MessageType, mediaType string, mediaData []byte) (domain.ChatMessage, error) {
	if strings.TrimSpace(text) == "" && len(mediaData) == 0 {
		return domain.ChatMessage{}, fmt.Errorf("%w: message is empty", domain.ErrValidation)
	}
	if typ == "" {
		typ = domain.MessageText
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return domain.ChatMessage{}, fmt.Errorf("chat.Session.SendMessage: %w", domain.ErrBusy)
	}
	s.sending = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
	}()

	msg := domain.ChatMessage{
		ID:         uuid.NewString(),
		ChatPath:   s.cfg.ChatPath,
		Content:    text,
		SenderID:   s.cfg.UserID,
		SenderName: s.cfg.UserName,
		Type:       typ,
		Timestamp:  time.Now().UTC(),
	}

	if len(mediaData) > 0 {
		if s.cfg.Media == nil {
			return domain.ChatMessage{}, fmt.Errorf("chat.Session.SendMessage: no media store configured")
		}
		url, err := s.cfg.Media.Upload(ctx, mediaType, mediaData)
		if err != nil {
			return domain.ChatMessage{}, fmt.Errorf("chat.Session.SendMessage: upload: %w", err)
		}
		msg.MediaURL = url
	}

	// Provisional render before the broker confirms; the echoed copy
	// deduplicates against this id.
	s.insert(msg)

	if s.cfg.Store != nil {
		if err := s.cfg.Store.Create(ctx, msg); err != nil {
			s.log.Warn("persisting chat message failed", "id", msg.ID, "error", err)
		}
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("chat.Session.SendMessage: marshal: %w", err)
	}
	if err := s.cfg.Broker.Publish(subjectFor(s.cfg.ChatPath, "messages"), data); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("chat.Session.SendMessage: publish: %w", err)
	}
	return msg, nil
}

// SetTyping publishes the user's typing flag. A true flag auto-expires
// after the typing timeout by republishing false, unless renewed by another
// SetTyping(true); false cancels any pending expiry and clears immediately.
func (s *Session) SetTyping(typing bool) error {
	s.mu.Lock()
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
	if typing {
		s.typingTimer = time.AfterFunc(s.cfg.TypingTimeout, func() {
			if err := s.SetTyping(false); err != nil {
				s.log.Debug("typing auto-expiry publish failed", "error", err)
			}
		})
	}
	s.mu.Unlock()

	state := domain.TypingState{
		UserID:   s.cfg.UserID,
		UserName: s.cfg.UserName,
		IsTyping: typing,
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("chat.Session.SetTyping: marshal: %w", err)
	}
	if err := s.cfg.Broker.Publish(subjectFor(s.cfg.ChatPath, "typing"), data); err != nil {
		return fmt.Errorf("chat.Session.SetTyping: publish: %w", err)
	}
	return nil
}

// LoadHistory fetches the most recent limit messages, sorts them ascending
// by timestamp, and replaces the rendered list wholesale.
func (s *Session) LoadHistory(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	if s.cfg.Store == nil {
		return nil, fmt.Errorf("chat.Session.LoadHistory: no history store configured")
	}
	if limit <= 0 {
		limit = 50
	}

	msgs, err := s.cfg.Store.ListRecent(ctx, s.cfg.ChatPath, limit)
	if err != nil {
		return nil, fmt.Errorf("chat.Session.LoadHistory: %w", err)
	}
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Timestamp.Before(msgs[j].Timestamp) })

	s.mu.Lock()
	s.messages = msgs
	s.seen = make(map[string]bool, len(msgs))
	for _, m := range msgs {
		s.seen[m.ID] = true
	}
	out := append([]domain.ChatMessage(nil), s.messages...)
	s.mu.Unlock()

	s.render(out)
	return out, nil
}

// Messages returns the current deduplicated, timestamp-ordered list.
func (s *Session) Messages() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChatMessage(nil), s.messages...)
}

// ---- stream handlers -------------------------------------------------------

func (s *Session) handleMessage(data []byte) {
	var msg domain.ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.Debug("dropping malformed chat message", "error", err)
		return
	}
	s.insert(msg)
}

// insert adds a message unless its id was already rendered, keeping the
// list ordered by timestamp, then re-renders.
func (s *Session) insert(msg domain.ChatMessage) {
	s.mu.Lock()
	if s.seen[msg.ID] {
		s.mu.Unlock()
		return
	}
	s.seen[msg.ID] = true
	s.messages = append(s.messages, msg)
	sort.SliceStable(s.messages, func(i, j int) bool {
		return s.messages[i].Timestamp.Before(s.messages[j].Timestamp)
	})
	out := append([]domain.ChatMessage(nil), s.messages...)
	s.mu.Unlock()

	s.render(out)
}

func (s *Session) handleTyping(data []byte) {
	var state domain.TypingState
	if err := json.Unmarshal(data, &state); err != nil {
		return
	}
	// Own typing echoes are not shown back to the sender.
	if state.UserID == s.cfg.UserID {
		return
	}
	if s.cfg.View != nil {
		s.cfg.View.ShowTyping(state)
	}
}

func (s *Session) handlePresence(data []byte) {
	var p domain.Presence
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	if s.cfg.View != nil {
		s.cfg.View.ShowPresence(p)
	}
}

func (s *Session) publishPresence(online bool) error {
	p := domain.Presence{
		UserID:   s.cfg.UserID,
		UserName: s.cfg.UserName,
		Online:   online,
		LastSeen: time.Now().UTC(),
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("chat.Session.publishPresence: marshal: %w", err)
	}
	if err := s.cfg.Broker.Publish(subjectFor(s.cfg.ChatPath, "users"), data); err != nil {
		return fmt.Errorf("chat.Session.publishPresence: %w", err)
	}
	return nil
}

func (s *Session) render(msgs []domain.ChatMessage) {
	if s.cfg.View != nil {
		s.cfg.View.RenderMessages(msgs)
	}
}
