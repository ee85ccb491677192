package agents

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ai-coscientist/orchestrator/internal/blackboard"
	"github.com/ai-coscientist/orchestrator/internal/modelclient"
	"github.com/ai-coscientist/orchestrator/internal/tasks"
)

// evolutionTechniques mirrors the original reference's technique list:
// enhancement through grounding, coherence/feasibility improvement,
// simplification, and out-of-box thinking.
var evolutionTechniques = []string{
	"enhancement_through_grounding",
	"coherence_and_feasibility",
	"simplification",
	"out_of_box_thinking",
}

// EvolutionAgent refines existing hypotheses into new ones, grounded on
// original_source/src/agents/evolution_agent.py. Evolutions never mutate a
// hypothesis in place — they always append a new hypothesis with the
// source as a parent (spec.md §3). mu guards Rand against concurrent
// evolve_hypothesis/combine_hypotheses dispatches.
type EvolutionAgent struct {
	Model modelclient.ModelCaller
	Rand  *rand.Rand
	mu    sync.Mutex
}

// NewEvolutionAgent builds an EvolutionAgent with its own seeded RNG.
func NewEvolutionAgent(model modelclient.ModelCaller, seed int64) *EvolutionAgent {
	return &EvolutionAgent{Model: model, Rand: rand.New(rand.NewSource(seed))}
}

func (a *EvolutionAgent) Execute(ctx context.Context, task tasks.Task, bb *blackboard.Blackboard) (map[string]any, error) {
	switch task.Kind {
	case "evolve_hypothesis":
		id, _ := task.Payload["hypothesis_id"].(string)
		if id == "" {
			return nil, fmt.Errorf("evolution: missing hypothesis_id")
		}
		return a.evolve(ctx, id, bb)
	case "combine_hypotheses":
		ids, _ := task.Payload["hypothesis_ids"].([]string)
		if len(ids) < 2 {
			return nil, fmt.Errorf("evolution: need at least 2 hypothesis_ids")
		}
		return a.combine(ctx, ids, bb)
	default:
		return nil, fmt.Errorf("evolution: unknown task kind %q", task.Kind)
	}
}

func (a *EvolutionAgent) evolve(ctx context.Context, id string, bb *blackboard.Blackboard) (map[string]any, error) {
	source := findHypothesis(bb, id)
	if source == nil {
		return nil, fmt.Errorf("evolution: hypothesis %s not found", id)
	}

	a.mu.Lock()
	technique := evolutionTechniques[a.Rand.Intn(len(evolutionTechniques))]
	a.mu.Unlock()
	prompt := fmt.Sprintf("Evolve the following hypothesis using the %q technique:\n\n%s", technique, source.Statement)
	resp, err := a.Model.Call(ctx, prompt, modelclient.CallOptions{})
	if err != nil {
		return nil, err
	}

	evolved := blackboard.Hypothesis{
		ID:               uuid.NewString(),
		ParentIDs:        []string{source.ID},
		Title:            source.Title + " (evolved)",
		Statement:        resp,
		Rationale:        fmt.Sprintf("Evolved from %s via %s.", source.ID, technique),
		Testability:      source.Testability,
		GenerationMethod: blackboard.GenerationEvolved,
		FocusArea:        source.FocusArea,
		CreatedAt:        time.Now(),
	}
	if err := bb.AppendHypothesis(evolved); err != nil {
		return nil, err
	}

	return map[string]any{
		"hypotheses": []string{evolved.ID},
	}, nil
}

func (a *EvolutionAgent) combine(ctx context.Context, ids []string, bb *blackboard.Blackboard) (map[string]any, error) {
	var statements []string
	for _, id := range ids {
		h := findHypothesis(bb, id)
		if h == nil {
			return nil, fmt.Errorf("evolution: hypothesis %s not found", id)
		}
		statements = append(statements, h.Statement)
	}

	prompt := "Combine the strongest elements of these hypotheses into one:\n\n"
	for i, s := range statements {
		prompt += fmt.Sprintf("%d. %s\n", i+1, s)
	}
	resp, err := a.Model.Call(ctx, prompt, modelclient.CallOptions{})
	if err != nil {
		return nil, err
	}

	combined := blackboard.Hypothesis{
		ID:               uuid.NewString(),
		ParentIDs:        append([]string(nil), ids...),
		Title:            "Combined hypothesis",
		Statement:        resp,
		Rationale:        "Synthesized from top-ranked hypotheses.",
		Testability:      "Requires decomposing the combined claim into independently testable parts.",
		GenerationMethod: blackboard.GenerationEvolved,
		CreatedAt:        time.Now(),
	}
	if err := bb.AppendHypothesis(combined); err != nil {
		return nil, err
	}

	return map[string]any{
		"hypotheses": []string{combined.ID},
	}, nil
}

func findHypothesis(bb *blackboard.Blackboard, id string) *blackboard.Hypothesis {
	for _, h := range bb.ListHypotheses() {
		if h.ID == id {
			h := h
			return &h
		}
	}
	return nil
}
