// Package responder orchestrates generation, the grounding decision,
// search augmentation, and fallback composition for one turn.
package responder

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/touchline-ai/touchline/internal/agent"
	"github.com/touchline-ai/touchline/internal/conversation"
	apperrors "github.com/touchline-ai/touchline/internal/errors"
	"github.com/touchline-ai/touchline/internal/gateway"
	"github.com/touchline-ai/touchline/internal/grounding"
	"github.com/touchline-ai/touchline/internal/stats"
)

// Notice appended when grounding was needed but search produced nothing.
const couldNotFetchNotice = "\n\n(Note: Unable to fetch the latest information at this time.)"

// Header introducing the raw evidence block appended by the safeguard.
const evidenceHeader = "\n\n---\n\nLatest from the web:\n"

// Responder produces the assistant reply for one turn.
type Responder struct {
	gen        gateway.Generator
	search     gateway.Searcher
	checker    *grounding.Checker
	maxResults int
	stats      *stats.Collector
	log        *zap.Logger
}

// Config configures the responder.
type Config struct {
	Generator  gateway.Generator
	Searcher   gateway.Searcher
	Checker    *grounding.Checker
	MaxResults int
	Stats      *stats.Collector
	Logger     *zap.Logger
}

// New creates a responder.
func New(cfg *Config) *Responder {
	r := &Responder{
		gen:        cfg.Generator,
		search:     cfg.Searcher,
		checker:    cfg.Checker,
		maxResults: cfg.MaxResults,
		stats:      cfg.Stats,
		log:        cfg.Logger,
	}
	if r.maxResults <= 0 {
		r.maxResults = 5
	}
	if r.stats == nil {
		r.stats = stats.NewCollector()
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	return r
}

// Respond answers the message as the given agent, mutating convCtx as
// it learns preferences. The returned string is always user-facing: a
// gateway failure degrades to a notice naming the failure kind, never
// a raw error.
func (r *Responder) Respond(ctx context.Context, desc *agent.Descriptor, message string, convCtx *conversation.Context) string {
	r.learnPreferences(message, convCtx)
	convCtx.LastQueryType = queryType(desc.ID)

	systemPrompt := r.buildSystemPrompt(desc, convCtx)

	initial, err := r.gen.Generate(ctx, &gateway.GenerateRequest{
		System: systemPrompt,
		Prompt: message,
	})
	if err != nil {
		r.log.Warn("initial generation failed",
			zap.String("agent", string(desc.ID)),
			zap.String("kind", apperrors.GetKind(err).String()))
		return apperrors.FormatUserMessage(err)
	}

	if !r.checker.NeedsGrounding(message, initial) {
		return initial
	}

	r.log.Info("grounding needed", zap.String("agent", string(desc.ID)))
	r.stats.RecordGrounded()

	results, err := r.search.Search(ctx, message, r.maxResults)
	if err != nil {
		// Search failure or no results never fails the turn.
		r.log.Warn("search unavailable, using initial answer",
			zap.String("kind", apperrors.GetKind(err).String()))
		r.stats.RecordSearchFallback()
		return initial + couldNotFetchNotice
	}

	evidence := grounding.FormatResults(results)

	final, err := r.gen.Generate(ctx, &gateway.GenerateRequest{
		System: r.buildGroundingPrompt(systemPrompt, message, evidence),
		Prompt: fmt.Sprintf("User: %s\n\nPlease provide an updated response using the web results.", message),
	})
	if err != nil {
		r.log.Warn("grounded generation failed, attaching raw evidence",
			zap.String("kind", apperrors.GetKind(err).String()))
		return initial + evidenceHeader + evidence
	}

	// Safeguard: if the model still claims ignorance or answers too
	// briefly, the user gets the underlying evidence anyway.
	if r.checker.HasIgnorancePhrase(final) || !r.checker.IsSubstantial(final) {
		return final + evidenceHeader + evidence
	}

	return final
}

// buildSystemPrompt combines the agent's static template with any
// learned context hints.
func (r *Responder) buildSystemPrompt(desc *agent.Descriptor, convCtx *conversation.Context) string {
	prompt := desc.PromptTemplate
	if convCtx.FavoriteTeam != "" {
		prompt += fmt.Sprintf("\n\nUser's favorite team: %s", convCtx.FavoriteTeam)
	}
	if convCtx.FavoriteSport != "" {
		prompt += fmt.Sprintf("\nUser's favorite sport: %s", convCtx.FavoriteSport)
	}
	return prompt
}

func (r *Responder) buildGroundingPrompt(systemPrompt, message, evidence string) string {
	return fmt.Sprintf(`%s

The user asked: %q

Here are current web search results:
%s

Please provide a comprehensive response using both your knowledge and the web results above.
If the web results contain specific fixture information or current data, incorporate it into your response.`,
		systemPrompt, message, evidence)
}

// learnPreferences records a declared favorite team or sport.
func (r *Responder) learnPreferences(message string, convCtx *conversation.Context) {
	lower := strings.ToLower(message)

	for _, marker := range []string{"my favourite team is ", "my favorite team is ", "i support "} {
		if idx := strings.Index(lower, marker); idx >= 0 {
			if team := firstClause(message[idx+len(marker):]); team != "" {
				convCtx.FavoriteTeam = team
			}
			break
		}
	}

	for _, marker := range []string{"my favourite sport is ", "my favorite sport is "} {
		if idx := strings.Index(lower, marker); idx >= 0 {
			if sport := firstClause(message[idx+len(marker):]); sport != "" {
				convCtx.FavoriteSport = sport
			}
			break
		}
	}
}

// firstClause trims a declared value at the first punctuation mark.
func firstClause(s string) string {
	if idx := strings.IndexAny(s, ".,!?;\n"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func queryType(id agent.ID) string {
	switch id {
	case agent.PremierLeague:
		return "premier_league"
	case agent.Championship:
		return "championship"
	case agent.Boxing:
		return "boxing"
	case agent.SportsNews:
		return "sports_news"
	default:
		return "triage"
	}
}
