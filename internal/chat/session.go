// Package chat owns the KinBot conversation transcript and drives
// turn-taking through the AI content gateway.
package chat

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/hpungsan/kinsfolk/internal/errors"
	"github.com/hpungsan/kinsfolk/internal/gateway"
	"github.com/hpungsan/kinsfolk/internal/ids"
)

// Greeting seeds every new session so the transcript never starts empty.
const Greeting = "Hi! I'm KinBot. I can help you brainstorm photo ideas, suggest " +
	"captions, or just chat about your family memories. How can I help today?"

// Apology replaces the assistant turn when the gateway fails; the
// conversation must never show a broken or empty turn.
const Apology = "I'm having a little trouble connecting to the memory banks " +
	"right now. Please try again in a moment."

// Message is one transcript entry. The transcript is append-only;
// messages are never mutated or deleted once appended.
type Message struct {
	ID      string       `json:"id"`
	Speaker gateway.Role `json:"speaker"`
	Text    string       `json:"text"`
	SentAt  int64        `json:"sent_at"`
}

// Replier is the slice of the gateway this session needs.
type Replier interface {
	ChatReply(ctx context.Context, history []gateway.Turn, userText string) (string, error)
}

// Session holds an ordered transcript and an awaiting-reply gate. At most
// one send is in flight; a second send while awaiting is rejected, not
// queued. There is no cancellation.
type Session struct {
	mu       sync.Mutex
	replier  Replier
	messages []Message
	awaiting bool
}

// NewSession creates a session seeded with the KinBot greeting.
func NewSession(replier Replier) *Session {
	s := &Session{replier: replier}
	s.appendLocked(gateway.RoleAssistant, Greeting)
	return s
}

// Messages returns a snapshot of the transcript, oldest first.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Awaiting reports whether a reply is currently pending.
func (s *Session) Awaiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaiting
}

// Send appends the user's message, requests a reply, and appends the
// assistant's turn. Empty input and duplicate sends are rejected before
// any suspension. A gateway failure becomes the fixed apology text; the
// caller never sees the backend error.
func (s *Session) Send(ctx context.Context, userText string) error {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return errors.NewInvalidRequest("message must not be empty")
	}

	s.mu.Lock()
	if s.awaiting {
		s.mu.Unlock()
		return errors.NewConflict("a reply is already pending")
	}
	// Capture the history before the optimistic append: the new text is
	// submitted as the message, not as part of the history.
	history := s.turnsLocked()
	s.appendLocked(gateway.RoleUser, userText)
	s.awaiting = true
	s.mu.Unlock()

	// Guaranteed release on every exit path.
	defer func() {
		s.mu.Lock()
		s.awaiting = false
		s.mu.Unlock()
	}()

	reply, err := s.replier.ChatReply(ctx, history, userText)
	if err != nil {
		log.Printf("chat: reply failed: %v", err)
		reply = Apology
	}

	s.mu.Lock()
	s.appendLocked(gateway.RoleAssistant, reply)
	s.mu.Unlock()

	return nil
}

// appendLocked adds a transcript entry. Caller must hold s.mu (or own
// the session exclusively, as in NewSession).
func (s *Session) appendLocked(speaker gateway.Role, text string) {
	id, err := ids.New()
	if err != nil {
		// Entropy failure is effectively unreachable; an empty ID is
		// preferable to losing the turn.
		log.Printf("chat: id mint failed: %v", err)
	}
	s.messages = append(s.messages, Message{
		ID:      id,
		Speaker: speaker,
		Text:    text,
		SentAt:  time.Now().Unix(),
	})
}

// turnsLocked maps the transcript onto gateway history turns. Caller
// must hold s.mu.
func (s *Session) turnsLocked() []gateway.Turn {
	turns := make([]gateway.Turn, 0, len(s.messages))
	for _, m := range s.messages {
		turns = append(turns, gateway.Turn{Role: m.Speaker, Text: m.Text})
	}
	return turns
}
