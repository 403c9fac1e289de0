// Package session holds the in-memory conversation state of one chat.
package session

import (
	"strings"
	"sync"

	"topic-rag/internal/models"
)

type Session struct {
	mu          sync.Mutex
	messages    []models.Message
	maxMessages int
}

// New creates a session keeping at most maxMessages turns. Zero or
// negative means unbounded.
func New(maxMessages int) *Session {
	return &Session{maxMessages: maxMessages}
}

// Add appends a turn, dropping the oldest turns beyond the window.
func (s *Session) Add(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, models.Message{Role: role, Content: content})
	if s.maxMessages > 0 && len(s.messages) > s.maxMessages {
		s.messages = s.messages[len(s.messages)-s.maxMessages:]
	}
}

// History returns a copy of the retained turns, oldest first.
func (s *Session) History() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Format renders the history as "Role: content" lines for prompts.
func (s *Session) Format() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]string, 0, len(s.messages))
	for _, m := range s.messages {
		lines = append(lines, capitalize(m.Role)+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func capitalize(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
