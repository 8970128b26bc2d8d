// Package conversation owns per-conversation state and its persistence.
package conversation

import (
	"time"

	"github.com/google/uuid"

	"github.com/touchline-ai/touchline/internal/agent"
)

// Context is the per-conversation user state. Created once per
// conversation, mutated by the responder as it learns preferences, and
// deleted only with the conversation.
type Context struct {
	UserID        string         `json:"user_id"`
	FavoriteTeam  string         `json:"favorite_team,omitempty"`
	FavoriteSport string         `json:"favorite_sport,omitempty"`
	LastQueryType string         `json:"last_query_type,omitempty"`
	Preferences   map[string]any `json:"preferences"`
	SessionStart  time.Time      `json:"session_start"`
}

// NewContext creates a fresh context for a new conversation.
func NewContext() Context {
	return Context{
		UserID:       uuid.NewString(),
		Preferences:  make(map[string]any),
		SessionStart: time.Now().UTC(),
	}
}

// Turn is one message within a conversation.
type Turn struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Agent     agent.ID  `json:"agent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the full persisted conversation.
//
// History is append-only and chronologically ordered; CurrentAgent is
// always a member of the fixed agent set. The store owns the state;
// router and responder receive it for the duration of one turn only.
type State struct {
	ConversationID string    `json:"conversation_id"`
	History        []Turn    `json:"history"`
	Context        Context   `json:"context"`
	CurrentAgent   agent.ID  `json:"current_agent"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewState creates the state for a new conversation: Triage agent,
// fresh context, empty history.
func NewState(conversationID string) *State {
	now := time.Now().UTC()
	return &State{
		ConversationID: conversationID,
		History:        []Turn{},
		Context:        NewContext(),
		CurrentAgent:   agent.Triage,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Append adds a turn to the history.
func (s *State) Append(role, content string, agentID agent.ID) {
	s.History = append(s.History, Turn{
		Role:      role,
		Content:   content,
		Agent:     agentID,
		Timestamp: time.Now().UTC(),
	})
}
