// Package router selects the responsible agent for the next turn.
//
// The router is a small state machine whose states are the fixed agent
// set. Triage is the initial state for every new conversation; there is
// no terminal state.
//
// Routing flow from Triage:
// 1. Ordered keyword rules (instant, free)
// 2. Classification via the generator (for ambiguous messages)
// 3. Configured default agent
package router

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/touchline-ai/touchline/internal/agent"
	"github.com/touchline-ai/touchline/internal/gateway"
)

const classificationPrompt = "Classify this sports query into one of these categories: " +
	"Premier League, Championship, Boxing, Sports News. " +
	"Respond with ONLY the category name."

// Router routes an incoming message to the responsible agent.
type Router struct {
	registry       *agent.Registry
	gen            gateway.Generator
	rules          []Rule
	returnKeywords []string
	defaultAgent   agent.ID
	log            *zap.Logger
}

// Config configures the router.
type Config struct {
	Registry       *agent.Registry
	Generator      gateway.Generator
	ReturnKeywords []string
	DefaultAgent   agent.ID
	Logger         *zap.Logger
}

// New creates a router with the default rule table.
func New(cfg *Config) *Router {
	r := &Router{
		registry:       cfg.Registry,
		gen:            cfg.Generator,
		rules:          defaultRules(),
		returnKeywords: cfg.ReturnKeywords,
		defaultAgent:   cfg.DefaultAgent,
		log:            cfg.Logger,
	}
	if len(r.returnKeywords) == 0 {
		r.returnKeywords = []string{"transfer", "triage", "different", "other"}
	}
	if r.defaultAgent == "" {
		r.defaultAgent = agent.PremierLeague
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	return r
}

// Route returns the agent that should handle the message.
//
// From Triage: first matching keyword rule wins; otherwise the
// generator classifies; an unusable classification falls back to the
// configured default. Keyword routing looks only at the message, never
// the conversation context.
//
// From a specialist: a return-to-triage keyword transitions back to
// Triage; otherwise the current agent keeps the conversation.
func (r *Router) Route(ctx context.Context, message string, current agent.ID) agent.ID {
	msg := strings.ToLower(message)

	if current != agent.Triage {
		for _, kw := range r.returnKeywords {
			if strings.Contains(msg, kw) {
				r.log.Debug("returning to triage", zap.String("from", string(current)), zap.String("keyword", kw))
				return agent.Triage
			}
		}
		return current
	}

	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(msg, kw) {
				r.log.Debug("keyword routing", zap.String("rule", rule.ID), zap.String("target", string(rule.Target)))
				return rule.Target
			}
		}
	}

	if target, ok := r.classify(ctx, message); ok {
		return target
	}

	r.log.Debug("routing fallback", zap.String("target", string(r.defaultAgent)))
	return r.defaultAgent
}

// classify asks the generator to emit exactly one agent name. Any
// unusable reply (empty, unknown, or a gateway failure) reports false.
func (r *Router) classify(ctx context.Context, message string) (agent.ID, bool) {
	if r.gen == nil {
		return "", false
	}

	reply, err := r.gen.Generate(ctx, &gateway.GenerateRequest{
		System: classificationPrompt,
		Prompt: message,
	})
	if err != nil {
		r.log.Warn("agent classification failed", zap.Error(err))
		return "", false
	}

	guess := agent.ID(strings.TrimSpace(reply))
	if r.registry.Known(guess) && guess != agent.Triage {
		return guess, true
	}

	// The model usually answers with the bare category name.
	withSuffix := agent.ID(strings.TrimSpace(reply) + " Agent")
	if r.registry.Known(withSuffix) && withSuffix != agent.Triage {
		return withSuffix, true
	}

	r.log.Debug("classification unusable", zap.String("reply", reply))
	return "", false
}
