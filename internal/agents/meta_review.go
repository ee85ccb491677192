package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/ai-coscientist/orchestrator/internal/blackboard"
	"github.com/ai-coscientist/orchestrator/internal/modelclient"
	"github.com/ai-coscientist/orchestrator/internal/tasks"
)

// ResearchOverview is the meta-level synthesis produced once, at shutdown,
// from the final top-ranked hypotheses.
type ResearchOverview struct {
	Summary         string   `json:"summary"`
	KeyThemes       []string `json:"key_themes"`
	TopHypothesisIDs []string `json:"top_hypothesis_ids"`
	SuggestedNextSteps string `json:"suggested_next_steps"`
}

// MetaReviewAgent synthesizes the final research overview. It is invoked
// exactly once, after shutdown, with the top-ranked hypotheses
// (spec.md §4.6); referenced but not retrieved from the original Python
// reference, so its behavior is built directly from spec.md's
// description of the capability.
type MetaReviewAgent struct {
	Model modelclient.ModelCaller
}

// NewMetaReviewAgent builds a MetaReviewAgent.
func NewMetaReviewAgent(model modelclient.ModelCaller) *MetaReviewAgent {
	return &MetaReviewAgent{Model: model}
}

func (a *MetaReviewAgent) Execute(ctx context.Context, task tasks.Task, bb *blackboard.Blackboard) (map[string]any, error) {
	if task.Kind != "generate_research_overview" {
		return nil, fmt.Errorf("meta_review: unknown task kind %q", task.Kind)
	}

	topIDs, _ := task.Payload["top_hypotheses"].([]string)

	byID := make(map[string]blackboard.Hypothesis)
	for _, h := range bb.ListHypotheses() {
		byID[h.ID] = h
	}

	var statements []string
	for _, id := range topIDs {
		if h, ok := byID[id]; ok {
			statements = append(statements, h.Statement)
		}
	}

	prompt := "Synthesize a research overview from the following top-ranked hypotheses:\n\n" + strings.Join(statements, "\n\n")
	resp, err := a.Model.Call(ctx, prompt, modelclient.CallOptions{})
	if err != nil {
		return nil, err
	}

	overview := ResearchOverview{
		Summary:            resp,
		KeyThemes:          distinctFocusAreas(byID, topIDs),
		TopHypothesisIDs:   topIDs,
		SuggestedNextSteps: "Run targeted experiments on the highest-rated hypotheses and re-enter the pipeline with their outcomes as new evidence.",
	}

	return map[string]any{
		"research_overview": overview,
	}, nil
}

func distinctFocusAreas(byID map[string]blackboard.Hypothesis, ids []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, id := range ids {
		h, ok := byID[id]
		if !ok || h.FocusArea == "" || seen[h.FocusArea] {
			continue
		}
		seen[h.FocusArea] = true
		out = append(out, h.FocusArea)
	}
	return out
}
