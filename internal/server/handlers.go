package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/touchline-ai/touchline/internal/conversation"
	apperrors "github.com/touchline-ai/touchline/internal/errors"
)

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: unixSeconds(time.Now()),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.stats.Snapshot(s.store.Size(), s.store.Path()))
}

// handleChat runs one full turn: route, respond, persist.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	started := time.Now()

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := strings.TrimSpace(req.Message)
	if len(message) > s.cfg.MaxMessageChars {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("message too long (max %d characters)", s.cfg.MaxMessageChars))
		return
	}

	isNew := req.ConversationID == ""
	if !isNew && message == "" {
		s.writeError(w, http.StatusBadRequest, "message cannot be empty")
		return
	}

	conversationID := req.ConversationID
	if isNew {
		conversationID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}

	unlock := s.store.Lock(conversationID)
	defer unlock()

	state, err := s.store.Get(ctx, conversationID)
	switch {
	case apperrors.IsKind(err, apperrors.KindNotFound):
		state = conversation.NewState(conversationID)
		// Persist before the first model call so lookups during a long
		// first turn resolve, and the conversation survives a crash
		// mid-turn.
		if err := s.store.Save(ctx, state); err != nil {
			s.stats.RecordError()
			s.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		isNew = true
	case err != nil:
		s.stats.RecordError()
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// A new conversation opened with an empty message returns the
	// initial state without any model call.
	if isNew && message == "" {
		s.writeJSON(w, http.StatusOK, ChatResponse{
			ConversationID: conversationID,
			CurrentAgent:   state.CurrentAgent,
			Messages:       []MessageResponse{},
			Events:         []AgentEvent{},
			Context:        state.Context,
			Agents:         s.agentList(),
			Guardrails:     []any{},
		})
		return
	}
	if message == "" {
		s.writeError(w, http.StatusBadRequest, "message cannot be empty")
		return
	}

	nextAgent := s.router.Route(ctx, message, state.CurrentAgent)
	state.CurrentAgent = nextAgent

	desc, ok := s.registry.Get(nextAgent)
	if !ok {
		// The router only emits members of the fixed agent set.
		s.log.Error("router produced unknown agent", zap.String("agent", string(nextAgent)))
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	responseText := s.responder.Respond(ctx, desc, message, &state.Context)

	// A cancelled turn must not write partial state.
	if ctx.Err() != nil {
		s.log.Debug("turn cancelled, skipping save", zap.String("id", conversationID))
		return
	}

	state.Append("user", message, "")
	state.Append("assistant", responseText, nextAgent)

	if err := s.store.Save(ctx, state); err != nil {
		s.log.Error("turn persistence failed", zap.String("id", conversationID), zap.Error(err))
		s.stats.RecordError()
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.stats.RecordTurn(string(nextAgent), time.Since(started))

	now := unixSeconds(time.Now())
	s.writeJSON(w, http.StatusOK, ChatResponse{
		ConversationID: conversationID,
		CurrentAgent:   nextAgent,
		Messages: []MessageResponse{
			{Content: responseText, Agent: nextAgent, Timestamp: now},
		},
		Events: []AgentEvent{
			{ID: strings.ReplaceAll(uuid.NewString(), "-", ""), Type: "message", Agent: nextAgent, Content: responseText, Timestamp: now},
		},
		Context:    state.Context,
		Agents:     s.agentList(),
		Guardrails: []any{},
	})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	state, err := s.store.Get(r.Context(), id)
	if apperrors.IsKind(err, apperrors.KindNotFound) {
		s.writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, ConversationResponse{
		ConversationID: id,
		History:        state.History,
		CurrentAgent:   state.CurrentAgent,
		CreatedAt:      unixSeconds(state.CreatedAt),
	})
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := s.store.Delete(r.Context(), id)
	if apperrors.IsKind(err, apperrors.KindNotFound) {
		s.writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "Conversation deleted successfully"})
}

func (s *Server) agentList() []AgentInfo {
	all := s.registry.All()
	out := make([]AgentInfo, 0, len(all))
	for _, d := range all {
		out = append(out, AgentInfo{Name: d.DisplayName, Description: d.Description})
	}
	return out
}
