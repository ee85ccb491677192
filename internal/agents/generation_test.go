package agents

import (
	"context"
	"testing"

	"github.com/ai-coscientist/orchestrator/internal/blackboard"
	"github.com/ai-coscientist/orchestrator/internal/modelclient"
	"github.com/ai-coscientist/orchestrator/internal/tasks"
)

func TestGenerationAgent_InitialGeneration(t *testing.T) {
	bb := blackboard.New(nil)
	a := NewGenerationAgent(modelclient.NewStaticModelCaller(1), 1)

	result, err := a.Execute(context.Background(), tasks.Task{
		Kind:    "initial_generation",
		Payload: map[string]any{"research_goal": "reduce catalyst cost"},
	}, bb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	created, _ := result["hypotheses"].([]string)
	if len(created) == 0 {
		t.Fatal("expected at least one hypothesis id")
	}
	if len(bb.ListHypotheses()) != len(created) {
		t.Errorf("expected every created id to be on the blackboard, got %d hypotheses for %d ids", len(bb.ListHypotheses()), len(created))
	}
	for _, h := range bb.ListHypotheses() {
		if h.GenerationMethod != blackboard.GenerationInitial {
			t.Errorf("expected GenerationInitial, got %v", h.GenerationMethod)
		}
		if len(h.ParentIDs) != 0 {
			t.Errorf("initial hypotheses should have no parents, got %v", h.ParentIDs)
		}
	}
}

func TestGenerationAgent_InitialGeneration_FallsBackToPlan(t *testing.T) {
	bb := blackboard.New(nil)
	bb.Put(blackboard.KeyResearchPlanConfig, map[string]any{"raw_goal": "goal from the blackboard"})
	a := NewGenerationAgent(modelclient.NewStaticModelCaller(2), 2)

	_, err := a.Execute(context.Background(), tasks.Task{Kind: "initial_generation"}, bb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bb.ListHypotheses()) == 0 {
		t.Fatal("expected the fallback goal to still produce hypotheses")
	}
}

func TestGenerationAgent_GenerateHypotheses_DefaultCount(t *testing.T) {
	bb := blackboard.New(nil)
	a := NewGenerationAgent(modelclient.NewStaticModelCaller(3), 3)

	result, err := a.Execute(context.Background(), tasks.Task{Kind: "generate_hypotheses"}, bb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	created, _ := result["hypotheses"].([]string)
	if len(created) != 5 {
		t.Errorf("expected the default count of 5, got %d", len(created))
	}
}

func TestGenerationAgent_GenerateHypotheses_CyclesMethods(t *testing.T) {
	bb := blackboard.New(nil)
	a := NewGenerationAgent(modelclient.NewStaticModelCaller(4), 4)

	_, err := a.Execute(context.Background(), tasks.Task{
		Kind:    "generate_hypotheses",
		Payload: map[string]any{"count": 8},
	}, bb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[blackboard.GenerationMethod]bool)
	for _, h := range bb.ListHypotheses() {
		seen[h.GenerationMethod] = true
	}
	if len(seen) != len(generationMethods) {
		t.Errorf("expected all %d generation methods to be exercised over 8 draws, saw %d", len(generationMethods), len(seen))
	}
}

func TestGenerationAgent_UnknownKind(t *testing.T) {
	bb := blackboard.New(nil)
	a := NewGenerationAgent(modelclient.NewStaticModelCaller(5), 5)

	if _, err := a.Execute(context.Background(), tasks.Task{Kind: "bogus"}, bb); err == nil {
		t.Error("expected an error for an unrecognized task kind")
	}
}
