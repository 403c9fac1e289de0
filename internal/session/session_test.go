package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topic-rag/internal/models"
)

func TestAddAndHistory(t *testing.T) {
	s := New(10)
	s.Add(models.RoleUser, "hello")
	s.Add(models.RoleAssistant, "hi there")

	history := s.History()
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, "hi there", history[1].Content)
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := New(10)
	s.Add(models.RoleUser, "hello")

	history := s.History()
	history[0].Content = "mutated"
	assert.Equal(t, "hello", s.History()[0].Content)
}

func TestWindowTrimsOldest(t *testing.T) {
	s := New(3)
	s.Add(models.RoleUser, "one")
	s.Add(models.RoleAssistant, "two")
	s.Add(models.RoleUser, "three")
	s.Add(models.RoleAssistant, "four")

	history := s.History()
	require.Len(t, history, 3)
	assert.Equal(t, "two", history[0].Content)
	assert.Equal(t, "four", history[2].Content)
}

func TestFormat(t *testing.T) {
	s := New(10)
	s.Add(models.RoleUser, "what is a raft?")
	s.Add(models.RoleAssistant, "a consensus protocol")

	assert.Equal(t, "User: what is a raft?\nAssistant: a consensus protocol", s.Format())
}

func TestFormatEmpty(t *testing.T) {
	assert.Equal(t, "", New(10).Format())
}

func TestClear(t *testing.T) {
	s := New(10)
	s.Add(models.RoleUser, "hello")
	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.History())
}

func TestUnboundedWindow(t *testing.T) {
	s := New(0)
	for i := 0; i < 100; i++ {
		s.Add(models.RoleUser, "msg")
	}
	assert.Equal(t, 100, s.Len())
}
