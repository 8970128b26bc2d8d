// Package agent provides the agent descriptors and registry.
//
// Agents are static: loaded once, read-only for the lifetime of the
// process. Triage is the initial agent for every new conversation.
package agent

// ID identifies an agent.
type ID string

const (
	Triage        ID = "Triage Agent"
	PremierLeague ID = "Premier League Agent"
	Championship  ID = "Championship Agent"
	Boxing        ID = "Boxing Agent"
	SportsNews    ID = "Sports News Agent"
)

// Descriptor holds an agent's static definition.
type Descriptor struct {
	ID             ID
	DisplayName    string
	PromptTemplate string
	Description    string
}

// Registry holds the fixed agent set in declaration order.
type Registry struct {
	agents map[ID]*Descriptor
	order  []ID
}

// NewRegistry creates the registry with the full agent set.
func NewRegistry() *Registry {
	r := &Registry{agents: make(map[ID]*Descriptor)}
	for _, d := range defaultAgents() {
		r.agents[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	return r
}

// Get retrieves a descriptor by id.
func (r *Registry) Get(id ID) (*Descriptor, bool) {
	d, ok := r.agents[id]
	return d, ok
}

// Known reports whether id names a registered agent.
func (r *Registry) Known(id ID) bool {
	_, ok := r.agents[id]
	return ok
}

// All returns all descriptors in declaration order.
func (r *Registry) All() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.agents[id])
	}
	return out
}

// Specialists returns every non-Triage descriptor in declaration order.
func (r *Registry) Specialists() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.order))
	for _, id := range r.order {
		if id != Triage {
			out = append(out, r.agents[id])
		}
	}
	return out
}

func defaultAgents() []*Descriptor {
	return []*Descriptor{
		{
			ID:          Triage,
			DisplayName: "Triage Agent",
			Description: "Routes your questions to the right specialist",
			PromptTemplate: "You are a friendly and knowledgeable UK sports triage agent. Your role is to understand what the user wants " +
				"and route them to the most appropriate specialist agent. You have access to experts in:\n" +
				"- Premier League (teams, players, fixtures, standings)\n" +
				"- Championship (second tier football)\n" +
				"- Boxing (fighters, matches, news)\n" +
				"- Sports News (transfers, breaking news)\n\n" +
				"Be conversational and helpful. If you're unsure about routing, ask clarifying questions. " +
				"Always explain why you're transferring them to a specific agent.",
		},
		{
			ID:          PremierLeague,
			DisplayName: "Premier League Agent",
			Description: "Premier League football expert with comprehensive team and player knowledge",
			PromptTemplate: "You are a Premier League expert with comprehensive knowledge about all 20 teams, players, history, and statistics. " +
				"Use your extensive training data to provide detailed, accurate information about:\n" +
				"- Team information, history, and current status\n" +
				"- Player profiles, statistics, and transfers\n" +
				"- Historical results and standings\n" +
				"- Match analysis and predictions\n\n" +
				"Only mention needing real-time data if you truly don't have the information in your knowledge base. " +
				"Be passionate and knowledgeable about the Premier League.",
		},
		{
			ID:          Championship,
			DisplayName: "Championship Agent",
			Description: "Championship football expert covering promotion battles and team news",
			PromptTemplate: "You are a Championship football expert with deep knowledge of England's second tier. " +
				"Provide detailed information about Championship teams, promotion/relegation battles, and player movements. " +
				"Use your knowledge to discuss the excitement of the Championship with its playoff system and competitive nature.",
		},
		{
			ID:          Boxing,
			DisplayName: "Boxing Agent",
			Description: "Boxing expert covering fighters, matches, and British boxing scene",
			PromptTemplate: "You are a boxing expert with comprehensive knowledge of professional boxing, including:\n" +
				"- Current and former world champions\n" +
				"- Weight divisions and title holders\n" +
				"- Fight history and upcoming matches\n" +
				"- British boxing scene\n\n" +
				"Provide detailed, accurate information from your training data. Only mention needing current information " +
				"if you truly don't have the details in your knowledge base.",
		},
		{
			ID:          SportsNews,
			DisplayName: "Sports News Agent",
			Description: "Latest sports news, transfers, and breaking developments",
			PromptTemplate: "You are a sports news expert focusing on UK sports developments. " +
				"Provide updates on transfers, breaking news, and major sports developments using your knowledge base. " +
				"Cover football transfers, boxing news, and general sports developments in the UK.",
		},
	}
}
