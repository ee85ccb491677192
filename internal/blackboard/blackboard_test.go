package blackboard

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ai-coscientist/orchestrator/internal/coserr"
	"github.com/ai-coscientist/orchestrator/internal/events"
)

func newTestHypothesis(id string, parents ...string) Hypothesis {
	return Hypothesis{
		ID:               id,
		ParentIDs:        parents,
		Title:            "title-" + id,
		Statement:        "statement-" + id,
		GenerationMethod: GenerationInitial,
		CreatedAt:        time.Now(),
	}
}

func TestAppendHypothesis_RejectsDuplicateID(t *testing.T) {
	bb := New(nil)
	if err := bb.AppendHypothesis(newTestHypothesis("h1")); err != nil {
		t.Fatalf("first insert should succeed: %v", err)
	}
	err := bb.AppendHypothesis(newTestHypothesis("h1"))
	var conflict *coserr.BlackboardConflict
	if err == nil {
		t.Fatal("expected a conflict on duplicate id")
	}
	if !asConflict(err, &conflict) {
		t.Errorf("expected *coserr.BlackboardConflict, got %T", err)
	}
}

func TestAppendHypothesis_RejectsUnknownParent(t *testing.T) {
	bb := New(nil)
	err := bb.AppendHypothesis(newTestHypothesis("child", "nonexistent-parent"))
	if err == nil {
		t.Fatal("expected an error for an unknown parent id")
	}
}

func TestAppendHypothesis_AcceptsKnownParent(t *testing.T) {
	bb := New(nil)
	if err := bb.AppendHypothesis(newTestHypothesis("parent")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := bb.AppendHypothesis(newTestHypothesis("child", "parent")); err != nil {
		t.Fatalf("child with a known parent should be accepted: %v", err)
	}
	if len(bb.ListHypotheses()) != 2 {
		t.Errorf("expected 2 hypotheses, got %d", len(bb.ListHypotheses()))
	}
}

func TestListHypotheses_ReturnsDefensiveCopy(t *testing.T) {
	bb := New(nil)
	bb.AppendHypothesis(newTestHypothesis("h1"))

	out := bb.ListHypotheses()
	out[0].Title = "mutated"

	again := bb.ListHypotheses()
	if again[0].Title == "mutated" {
		t.Error("ListHypotheses should return a copy, not a view into internal state")
	}
}

func TestMarkReviewed_Idempotent(t *testing.T) {
	bb := New(nil)
	bb.MarkReviewed("h1", Review{HypothesisID: "h1", Passed: true})
	bb.MarkReviewed("h1", Review{HypothesisID: "h1", Passed: false})

	ids := bb.ReviewedIDs()
	if len(ids) != 1 {
		t.Errorf("re-marking the same id should not grow the reviewed set, got %d entries", len(ids))
	}
	r, ok := bb.Review("h1")
	if !ok {
		t.Fatal("expected a review for h1")
	}
	if r.Passed {
		t.Error("expected the freshest review data (passed=false) to be kept")
	}
}

func TestPassedReviewIDs(t *testing.T) {
	bb := New(nil)
	bb.MarkReviewed("pass", Review{Passed: true})
	bb.MarkReviewed("fail", Review{Passed: false})

	passed := bb.PassedReviewIDs()
	if len(passed) != 1 || passed[0] != "pass" {
		t.Errorf("expected only the passing id, got %v", passed)
	}
}

func TestUpdateTournament_SequentialConsistency(t *testing.T) {
	bb := New(nil)
	bb.UpdateTournament(func(ts TournamentState) TournamentState {
		ts.Ratings["a"] = 1200
		ts.Ratings["b"] = 1200
		return ts
	})
	final := bb.UpdateTournament(func(ts TournamentState) TournamentState {
		ts.Matches = append(ts.Matches, Match{H1: "a", H2: "b", Winner: "a", Kind: MatchSimple, At: time.Now()})
		ts.CompletedMatches++
		return ts
	})

	if final.CompletedMatches != 1 {
		t.Errorf("expected 1 completed match, got %d", final.CompletedMatches)
	}
	if len(bb.Tournament().Matches) != 1 {
		t.Errorf("Tournament() snapshot should reflect the update")
	}
}

func TestUpdateTournament_ConcurrentUpdatesNeverLostUnderLock(t *testing.T) {
	bb := New(nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			bb.UpdateTournament(func(ts TournamentState) TournamentState {
				ts.CompletedMatches++
				return ts
			})
		}(i)
	}
	wg.Wait()

	if got := bb.Tournament().CompletedMatches; got != 50 {
		t.Errorf("expected 50 completed matches after concurrent updates, got %d", got)
	}
}

func TestPutProximity_ReturnsDefensiveCopy(t *testing.T) {
	bb := New(nil)
	bb.PutProximity(ProximityGraph{Adjacency: map[string][]ProximityEdge{
		"a": {{HypothesisID: "b", Similarity: 0.5}},
	}})

	snap := bb.Proximity()
	snap.Adjacency["a"][0].Similarity = 0.99

	again := bb.Proximity()
	if again.Adjacency["a"][0].Similarity == 0.99 {
		t.Error("Proximity() should return a copy, not a view into internal state")
	}
}

func TestRecordStats_MonotonicIterationKeys(t *testing.T) {
	bb := New(nil)
	bb.RecordStats(0, Statistics{Iteration: 0, NumHypotheses: 1})
	bb.RecordStats(1, Statistics{Iteration: 1, NumHypotheses: 2})

	s0, ok := bb.Stats(0)
	if !ok || s0.NumHypotheses != 1 {
		t.Errorf("expected iteration 0 snapshot to be preserved, got %+v ok=%v", s0, ok)
	}
	s1, ok := bb.Stats(1)
	if !ok || s1.NumHypotheses != 2 {
		t.Errorf("expected iteration 1 snapshot, got %+v ok=%v", s1, ok)
	}
}

func TestStatistics_JSONRoundTrip(t *testing.T) {
	original := Statistics{
		Iteration:          3,
		NumHypotheses:       7,
		NumReviewed:         4,
		UnreviewedIDs:       []string{"h1", "h2"},
		TournamentProgress: 0.42,
		TopRanked:          []string{"h3", "h1"},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `"num_hypotheses":7`; !containsSubstring(string(data), want) {
		t.Errorf("expected snake_case field %q in %s", want, data)
	}

	var decoded Statistics
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.NumHypotheses != original.NumHypotheses || decoded.TournamentProgress != original.TournamentProgress {
		t.Errorf("round-trip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestEvents_PublishedOnMutation(t *testing.T) {
	bb := New(nil)
	ch := bb.Events().Subscribe("dashboard", []events.EventType{events.EventHypothesisAdded})

	if err := bb.AppendHypothesis(newTestHypothesis("h1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Type != events.EventHypothesisAdded {
			t.Errorf("expected EventHypothesisAdded, got %v", ev.Type)
		}
		if ev.Payload["hypothesis_id"] != "h1" {
			t.Errorf("expected payload hypothesis_id=h1, got %v", ev.Payload["hypothesis_id"])
		}
	case <-time.After(time.Second):
		t.Fatal("expected an event to be published on AppendHypothesis")
	}
}

func asConflict(err error, target **coserr.BlackboardConflict) bool {
	c, ok := err.(*coserr.BlackboardConflict)
	if ok {
		*target = c
	}
	return ok
}

func containsSubstring(s, sub string) bool {
	return len(s) >= len(sub) && (func() bool {
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				return true
			}
		}
		return false
	})()
}
