// Package server provides the HTTP transport for Touchline.
package server

import (
	"github.com/touchline-ai/touchline/internal/agent"
	"github.com/touchline-ai/touchline/internal/conversation"
)

// ChatRequest is the inbound chat turn.
type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

// MessageResponse is one assistant message in a chat response.
type MessageResponse struct {
	Content   string   `json:"content"`
	Agent     agent.ID `json:"agent"`
	Timestamp float64  `json:"timestamp"`
}

// AgentEvent is a processing event surfaced to the client.
type AgentEvent struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Agent     agent.ID `json:"agent"`
	Content   string   `json:"content"`
	Timestamp float64  `json:"timestamp"`
}

// AgentInfo describes one member of the agent set.
type AgentInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ChatResponse is the chat turn reply.
type ChatResponse struct {
	ConversationID string               `json:"conversation_id"`
	CurrentAgent   agent.ID             `json:"current_agent"`
	Messages       []MessageResponse    `json:"messages"`
	Events         []AgentEvent         `json:"events"`
	Context        conversation.Context `json:"context"`
	Agents         []AgentInfo          `json:"agents"`
	Guardrails     []any                `json:"guardrails"`
}

// ConversationResponse is the conversation lookup reply.
type ConversationResponse struct {
	ConversationID string              `json:"conversation_id"`
	History        []conversation.Turn `json:"history"`
	CurrentAgent   agent.ID            `json:"current_agent"`
	CreatedAt      float64             `json:"created_at"`
}

// HealthResponse is the health probe reply.
type HealthResponse struct {
	Status    string  `json:"status"`
	Timestamp float64 `json:"timestamp"`
}

// ErrorResponse is the error reply body.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
