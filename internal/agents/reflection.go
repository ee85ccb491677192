package agents

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/ai-coscientist/orchestrator/internal/blackboard"
	"github.com/ai-coscientist/orchestrator/internal/modelclient"
	"github.com/ai-coscientist/orchestrator/internal/tasks"
)

// ReflectionAgent performs the multi-stage critique of a hypothesis,
// grounded on original_source/src/agents/reflection_agent.py: an initial
// pass filter, then (only if that passes) a full review, a deep
// assumption-by-assumption verification, and an observational note. The
// pool dispatches review_hypothesis tasks to the same ReflectionAgent
// instance concurrently, so every Rand draw is guarded by mu.
type ReflectionAgent struct {
	Model modelclient.ModelCaller
	Rand  *rand.Rand
	mu    sync.Mutex
}

// NewReflectionAgent builds a ReflectionAgent with its own seeded RNG.
func NewReflectionAgent(model modelclient.ModelCaller, seed int64) *ReflectionAgent {
	return &ReflectionAgent{Model: model, Rand: rand.New(rand.NewSource(seed))}
}

func (a *ReflectionAgent) Execute(ctx context.Context, task tasks.Task, bb *blackboard.Blackboard) (map[string]any, error) {
	if task.Kind != "review_hypothesis" {
		return nil, fmt.Errorf("reflection: unknown task kind %q", task.Kind)
	}

	hypothesisID, _ := task.Payload["hypothesis_id"].(string)
	if hypothesisID == "" {
		return nil, fmt.Errorf("reflection: missing hypothesis_id")
	}

	var target *blackboard.Hypothesis
	for _, h := range bb.ListHypotheses() {
		if h.ID == hypothesisID {
			h := h
			target = &h
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("reflection: hypothesis %s not found", hypothesisID)
	}

	initial, err := a.performInitialReview(ctx, *target)
	if err != nil {
		return nil, err
	}

	review := blackboard.Review{
		HypothesisID: hypothesisID,
		Initial:      initial,
	}

	if initial.Passed {
		full, err := a.performFullReview(ctx, *target)
		if err != nil {
			return nil, err
		}
		deep, err := a.performDeepVerification(ctx, *target)
		if err != nil {
			return nil, err
		}
		observation, err := a.performObservation(ctx, *target)
		if err != nil {
			return nil, err
		}

		review.Full = &full
		review.DeepVerification = &deep
		review.Observation = observation
		review.Passed = initial.Passed && full.Passed && deep.Passed
	}

	bb.MarkReviewed(hypothesisID, review)

	return map[string]any{
		"reviewed_hypotheses": hypothesisID,
	}, nil
}

func (a *ReflectionAgent) performInitialReview(ctx context.Context, h blackboard.Hypothesis) (blackboard.InitialReview, error) {
	prompt := fmt.Sprintf("Perform an initial review of the following hypothesis:\n\n%s", h.Statement)
	resp, err := a.Model.Call(ctx, prompt, modelclient.CallOptions{})
	if err != nil {
		return blackboard.InitialReview{}, err
	}
	a.mu.Lock()
	passed := a.Rand.Float64() < 0.85
	a.mu.Unlock()
	return blackboard.InitialReview{
		Passed:  passed,
		Comment: resp,
	}, nil
}

func (a *ReflectionAgent) performFullReview(ctx context.Context, h blackboard.Hypothesis) (blackboard.FullReview, error) {
	prompt := fmt.Sprintf("Perform a full novelty and correctness review of:\n\n%s", h.Statement)
	resp, err := a.Model.Call(ctx, prompt, modelclient.CallOptions{})
	if err != nil {
		return blackboard.FullReview{}, err
	}
	a.mu.Lock()
	passed := a.Rand.Float64() < 0.85
	a.mu.Unlock()
	return blackboard.FullReview{
		Passed:            passed,
		NoveltyAssessment: resp,
		Correctness:       "plausible given stated assumptions",
	}, nil
}

func (a *ReflectionAgent) performDeepVerification(ctx context.Context, h blackboard.Hypothesis) (blackboard.DeepVerification, error) {
	prompt := fmt.Sprintf("Verify the load-bearing assumptions of:\n\n%s", h.Statement)
	resp, err := a.Model.Call(ctx, prompt, modelclient.CallOptions{})
	if err != nil {
		return blackboard.DeepVerification{}, err
	}
	a.mu.Lock()
	passed := a.Rand.Float64() < 0.9
	a.mu.Unlock()
	return blackboard.DeepVerification{
		Passed:      passed,
		Observation: resp,
	}, nil
}

func (a *ReflectionAgent) performObservation(ctx context.Context, h blackboard.Hypothesis) (string, error) {
	prompt := fmt.Sprintf("Note any observational evidence bearing on:\n\n%s", h.Statement)
	return a.Model.Call(ctx, prompt, modelclient.CallOptions{})
}
