package agents

import (
	"context"
	"testing"

	"github.com/ai-coscientist/orchestrator/internal/blackboard"
	"github.com/ai-coscientist/orchestrator/internal/modelclient"
	"github.com/ai-coscientist/orchestrator/internal/tasks"
)

func seedOneHypothesis(t *testing.T, bb *blackboard.Blackboard, id string) {
	t.Helper()
	if err := bb.AppendHypothesis(blackboard.Hypothesis{
		ID:               id,
		Title:            "title",
		Statement:        "a testable statement",
		GenerationMethod: blackboard.GenerationInitial,
	}); err != nil {
		t.Fatalf("seeding hypothesis: %v", err)
	}
}

func TestReflectionAgent_MissingHypothesisID(t *testing.T) {
	bb := blackboard.New(nil)
	a := NewReflectionAgent(modelclient.NewStaticModelCaller(1), 1)

	_, err := a.Execute(context.Background(), tasks.Task{Kind: "review_hypothesis"}, bb)
	if err == nil {
		t.Error("expected an error when hypothesis_id is missing")
	}
}

func TestReflectionAgent_UnknownHypothesis(t *testing.T) {
	bb := blackboard.New(nil)
	a := NewReflectionAgent(modelclient.NewStaticModelCaller(1), 1)

	_, err := a.Execute(context.Background(), tasks.Task{
		Kind:    "review_hypothesis",
		Payload: map[string]any{"hypothesis_id": "nonexistent"},
	}, bb)
	if err == nil {
		t.Error("expected an error for a hypothesis not present on the blackboard")
	}
}

func TestReflectionAgent_MarksReviewed(t *testing.T) {
	bb := blackboard.New(nil)
	seedOneHypothesis(t, bb, "h1")
	a := NewReflectionAgent(modelclient.NewStaticModelCaller(99), 99)

	result, err := a.Execute(context.Background(), tasks.Task{
		Kind:    "review_hypothesis",
		Payload: map[string]any{"hypothesis_id": "h1"},
	}, bb)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["reviewed_hypotheses"] != "h1" {
		t.Errorf("expected reviewed_hypotheses=h1, got %v", result["reviewed_hypotheses"])
	}

	review, ok := bb.Review("h1")
	if !ok {
		t.Fatal("expected a review to be recorded")
	}
	// passed can only be true if every stage that ran also passed.
	if review.Passed && !review.Initial.Passed {
		t.Error("overall passed=true requires the initial stage to have passed")
	}
	if !review.Initial.Passed && (review.Full != nil || review.DeepVerification != nil) {
		t.Error("later stages should not run once the initial pass fails")
	}
}

func TestReflectionAgent_UnknownKind(t *testing.T) {
	bb := blackboard.New(nil)
	a := NewReflectionAgent(modelclient.NewStaticModelCaller(1), 1)
	if _, err := a.Execute(context.Background(), tasks.Task{Kind: "bogus"}, bb); err == nil {
		t.Error("expected an error for an unrecognized task kind")
	}
}
