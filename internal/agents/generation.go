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

// generationMethods cycles through the techniques the original reference
// mixes when no specific method is requested: literature exploration,
// simulated debate, assumptions identification, feedback-driven generation.
var generationMethods = []blackboard.GenerationMethod{
	blackboard.GenerationLiterature,
	blackboard.GenerationDebate,
	blackboard.GenerationAssumptions,
	blackboard.GenerationFeedback,
}

// GenerationAgent creates novel research hypotheses, grounded on
// original_source/src/agents/generation_agent.py. The pool may invoke
// Execute concurrently for multiple generation tasks, so Rand is guarded
// by mu rather than trusted bare (math/rand.Rand is not safe for
// concurrent use).
type GenerationAgent struct {
	Model modelclient.ModelCaller
	Rand  *rand.Rand
	mu    sync.Mutex
}

// NewGenerationAgent builds a GenerationAgent with its own seeded RNG.
func NewGenerationAgent(model modelclient.ModelCaller, seed int64) *GenerationAgent {
	return &GenerationAgent{Model: model, Rand: rand.New(rand.NewSource(seed))}
}

// Execute dispatches on task.Kind, mirroring the Python reference's
// task_type switch.
func (a *GenerationAgent) Execute(ctx context.Context, task tasks.Task, bb *blackboard.Blackboard) (map[string]any, error) {
	switch task.Kind {
	case "initial_generation":
		return a.initialGeneration(ctx, task, bb)
	case "generate_hypotheses":
		return a.generateHypotheses(ctx, task, bb)
	default:
		return nil, fmt.Errorf("generation: unknown task kind %q", task.Kind)
	}
}

func (a *GenerationAgent) initialGeneration(ctx context.Context, task tasks.Task, bb *blackboard.Blackboard) (map[string]any, error) {
	goal, _ := task.Payload["research_goal"].(string)
	if goal == "" {
		if cfg, ok := bb.Get(blackboard.KeyResearchPlanConfig); ok {
			if m, ok := cfg.(map[string]any); ok {
				goal, _ = m["raw_goal"].(string)
			}
		}
	}
	if goal == "" {
		// No goal to explore: nothing to generate focus areas or
		// hypotheses from.
		return map[string]any{"hypotheses": []string(nil)}, nil
	}

	prompt := fmt.Sprintf("Based on the following research goal:\n\n%s\n\nGenerate 3-5 initial focus areas for exploration, each with a brief description.", goal)
	if _, err := a.Model.Call(ctx, prompt, modelclient.CallOptions{}); err != nil {
		return nil, err
	}

	areas := a.deriveFocusAreas(goal)
	bb.PutFocusAreas(areas)

	var created []string
	for _, area := range areas {
		for i := 0; i < 2; i++ {
			h := a.newHypothesis(nil, area.ID, blackboard.GenerationInitial, goal)
			if err := bb.AppendHypothesis(h); err != nil {
				continue
			}
			created = append(created, h.ID)
		}
	}

	return map[string]any{
		"hypotheses": created,
	}, nil
}

func (a *GenerationAgent) generateHypotheses(ctx context.Context, task tasks.Task, bb *blackboard.Blackboard) (map[string]any, error) {
	count := 5
	if c, ok := task.Payload["count"].(int); ok && c > 0 {
		count = c
	}

	// Every model call is made before anything is appended, so a failed
	// call leaves the blackboard unchanged for this task.
	pending := make([]blackboard.Hypothesis, 0, count)
	for i := 0; i < count; i++ {
		method := generationMethods[i%len(generationMethods)]
		prompt := fmt.Sprintf("Generate a novel research hypothesis using the %q technique.", method)
		if _, err := a.Model.Call(ctx, prompt, modelclient.CallOptions{}); err != nil {
			return nil, err
		}
		pending = append(pending, a.newHypothesis(nil, "", method, ""))
	}

	var created []string
	for _, h := range pending {
		if err := bb.AppendHypothesis(h); err != nil {
			continue
		}
		created = append(created, h.ID)
	}

	return map[string]any{
		"hypotheses": created,
	}, nil
}

func (a *GenerationAgent) deriveFocusAreas(goal string) []blackboard.FocusArea {
	a.mu.Lock()
	count := 3 + a.Rand.Intn(3) // 3-5, matching the reference's prompt
	a.mu.Unlock()
	areas := make([]blackboard.FocusArea, 0, count)
	for i := 0; i < count; i++ {
		areas = append(areas, blackboard.FocusArea{
			ID:          uuid.NewString(),
			Title:       fmt.Sprintf("Focus area %d", i+1),
			Description: fmt.Sprintf("Sub-topic %d derived from: %.40s", i+1, goal),
		})
	}
	return areas
}

func (a *GenerationAgent) newHypothesis(parentIDs []string, focusArea string, method blackboard.GenerationMethod, goal string) blackboard.Hypothesis {
	id := uuid.NewString()
	return blackboard.Hypothesis{
		ID:               id,
		ParentIDs:        parentIDs,
		Title:            fmt.Sprintf("Hypothesis %s", id[:8]),
		Statement:        fmt.Sprintf("Proposal derived via %s for goal: %.60s", method, goal),
		Rationale:        fmt.Sprintf("Generated by the %s technique.", method),
		Testability:      "Requires a controlled comparison against a baseline.",
		GenerationMethod: method,
		FocusArea:        focusArea,
		CreatedAt:        time.Now(),
	}
}
