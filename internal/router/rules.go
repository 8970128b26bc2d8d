// Package router provides the declarative keyword routing rules.
package router

import "github.com/touchline-ai/touchline/internal/agent"

// Rule routes a message containing any of its keywords to the target
// agent. Keywords match as case-insensitive substrings.
type Rule struct {
	ID       string
	Keywords []string
	Target   agent.ID
}

// defaultRules returns the routing rule table.
//
// Rules are evaluated in declared order and the first match is
// authoritative regardless of how many rules match. Reordering changes
// routing behavior and is a compatibility break.
func defaultRules() []Rule {
	return []Rule{
		{
			ID:       "premier_league",
			Keywords: []string{"premier league", "arsenal", "chelsea", "manchester", "liverpool", "tottenham"},
			Target:   agent.PremierLeague,
		},
		{
			ID:       "championship",
			Keywords: []string{"championship", "leicester", "leeds", "norwich"},
			Target:   agent.Championship,
		},
		{
			ID:       "boxing",
			Keywords: []string{"boxing", "fury", "joshua", "usyk", "fight"},
			Target:   agent.Boxing,
		},
		{
			ID:       "sports_news",
			Keywords: []string{"transfer", "news", "signing", "latest"},
			Target:   agent.SportsNews,
		},
	}
}
