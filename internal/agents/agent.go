// Package agents defines the capability contract every specialized
// cognitive agent implements, and the registry the worker pool dispatches
// through. The agents themselves are the "external collaborators" spec.md
// §1 describes: their prompt templating and response parsing are the
// part out of scope; the contract below is what the orchestration core
// actually depends on.
package agents

import (
	"context"
	"fmt"

	"github.com/ai-coscientist/orchestrator/internal/blackboard"
	"github.com/ai-coscientist/orchestrator/internal/tasks"
)

// Capability names a registered agent.
type Capability = tasks.Capability

// Re-export the capability constants so callers only need to import this
// package.
const (
	Generation = tasks.CapabilityGeneration
	Reflection = tasks.CapabilityReflection
	Ranking    = tasks.CapabilityRanking
	Proximity  = tasks.CapabilityProximity
	Evolution  = tasks.CapabilityEvolution
	MetaReview = tasks.CapabilityMetaReview
)

// Agent is the single operation every specialized agent exposes. It
// receives a task and read/write access to the blackboard, commits
// whatever mutation it makes (AppendHypothesis, MarkReviewed,
// UpdateTournament, PutProximity) directly through the blackboard's own
// locked operations before returning, and produces a result map the pool
// keeps only for observability. Agents must be re-entrant: the pool may
// invoke multiple tasks of the same capability concurrently, and must
// never retain state outside the blackboard between calls.
type Agent interface {
	Execute(ctx context.Context, task tasks.Task, bb *blackboard.Blackboard) (map[string]any, error)
}

// Registry maps capability name to agent implementation.
type Registry struct {
	agents map[Capability]Agent
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[Capability]Agent)}
}

// Register adds or replaces the agent for a capability.
func (r *Registry) Register(capability Capability, agent Agent) {
	r.agents[capability] = agent
}

// Lookup returns the agent registered for capability, or an error if none
// is registered.
func (r *Registry) Lookup(capability Capability) (Agent, error) {
	agent, ok := r.agents[capability]
	if !ok {
		return nil, fmt.Errorf("agents: no agent registered for capability %q", capability)
	}
	return agent, nil
}

// RequiredCapabilities lists every capability the supervisor's fixed task
// set dispatches to. CheckComplete uses this to fail fast at startup
// rather than dropping tasks silently at dispatch time.
var RequiredCapabilities = []Capability{
	Generation, Reflection, Ranking, Proximity, Evolution, MetaReview,
}

// CheckComplete returns an error naming every capability in
// RequiredCapabilities that has no registered agent.
func (r *Registry) CheckComplete() error {
	var missing []Capability
	for _, c := range RequiredCapabilities {
		if _, ok := r.agents[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("agents: incomplete registry, missing capabilities: %v", missing)
	}
	return nil
}
