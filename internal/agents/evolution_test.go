package agents

import (
	"context"
	"testing"

	"github.com/ai-coscientist/orchestrator/internal/blackboard"
	"github.com/ai-coscientist/orchestrator/internal/modelclient"
	"github.com/ai-coscientist/orchestrator/internal/tasks"
)

func TestEvolutionAgent_Evolve_AppendsWithParent(t *testing.T) {
	bb := blackboard.New(nil)
	bb.AppendHypothesis(blackboard.Hypothesis{ID: "source", Title: "source", Statement: "the original claim"})
	a := NewEvolutionAgent(modelclient.NewStaticModelCaller(1), 1)

	result, err := a.Execute(context.Background(), tasks.Task{
		Kind:    "evolve_hypothesis",
		Payload: map[string]any{"hypothesis_id": "source"},
	}, bb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids, _ := result["hypotheses"].([]string)
	if len(ids) != 1 {
		t.Fatalf("expected exactly one evolved hypothesis, got %v", ids)
	}
	if len(bb.ListHypotheses()) != 2 {
		t.Fatalf("evolution must append, never mutate in place; expected 2 hypotheses, got %d", len(bb.ListHypotheses()))
	}

	var evolved *blackboard.Hypothesis
	for _, h := range bb.ListHypotheses() {
		if h.ID == ids[0] {
			h := h
			evolved = &h
		}
	}
	if evolved == nil {
		t.Fatal("evolved hypothesis not found on the blackboard")
	}
	if len(evolved.ParentIDs) != 1 || evolved.ParentIDs[0] != "source" {
		t.Errorf("expected evolved.ParentIDs=[source], got %v", evolved.ParentIDs)
	}
	if evolved.GenerationMethod != blackboard.GenerationEvolved {
		t.Errorf("expected GenerationEvolved, got %v", evolved.GenerationMethod)
	}
}

func TestEvolutionAgent_Evolve_UnknownSource(t *testing.T) {
	bb := blackboard.New(nil)
	a := NewEvolutionAgent(modelclient.NewStaticModelCaller(1), 1)

	_, err := a.Execute(context.Background(), tasks.Task{
		Kind:    "evolve_hypothesis",
		Payload: map[string]any{"hypothesis_id": "nonexistent"},
	}, bb)
	if err == nil {
		t.Error("expected an error for an unknown source hypothesis")
	}
}

func TestEvolutionAgent_Combine_RequiresAtLeastTwoIDs(t *testing.T) {
	bb := blackboard.New(nil)
	a := NewEvolutionAgent(modelclient.NewStaticModelCaller(1), 1)

	_, err := a.Execute(context.Background(), tasks.Task{
		Kind:    "combine_hypotheses",
		Payload: map[string]any{"hypothesis_ids": []string{"only-one"}},
	}, bb)
	if err == nil {
		t.Error("expected an error when fewer than 2 hypothesis_ids are supplied")
	}
}

func TestEvolutionAgent_Combine_ParentsEveryInput(t *testing.T) {
	bb := blackboard.New(nil)
	bb.AppendHypothesis(blackboard.Hypothesis{ID: "a", Title: "a", Statement: "claim a"})
	bb.AppendHypothesis(blackboard.Hypothesis{ID: "b", Title: "b", Statement: "claim b"})
	a := NewEvolutionAgent(modelclient.NewStaticModelCaller(2), 2)

	result, err := a.Execute(context.Background(), tasks.Task{
		Kind:    "combine_hypotheses",
		Payload: map[string]any{"hypothesis_ids": []string{"a", "b"}},
	}, bb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids, _ := result["hypotheses"].([]string)
	var combined *blackboard.Hypothesis
	for _, h := range bb.ListHypotheses() {
		if h.ID == ids[0] {
			h := h
			combined = &h
		}
	}
	if combined == nil {
		t.Fatal("combined hypothesis not found")
	}
	if len(combined.ParentIDs) != 2 {
		t.Errorf("expected 2 parent ids, got %v", combined.ParentIDs)
	}
}

func TestEvolutionAgent_UnknownKind(t *testing.T) {
	bb := blackboard.New(nil)
	a := NewEvolutionAgent(modelclient.NewStaticModelCaller(1), 1)
	if _, err := a.Execute(context.Background(), tasks.Task{Kind: "bogus"}, bb); err == nil {
		t.Error("expected an error for an unrecognized task kind")
	}
}
