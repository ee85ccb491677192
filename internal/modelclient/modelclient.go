// Package modelclient defines the single abstract capability agents use to
// reach a language model. The wire format, authentication, and
// retry/backoff policy of any real implementation are out of scope for the
// orchestration core (spec.md §1, §6) — this package only ships the
// interface plus a deterministic stub usable by tests and as the CLI
// default when no real backend is wired.
package modelclient

import (
	"context"
	"fmt"
	"math/rand"
)

// CallOptions carries the tunables a caller may want to pass through to
// whatever backend implements ModelCaller.
type CallOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// ModelCaller is the single operation every agent uses to reach a
// language model.
type ModelCaller interface {
	Call(ctx context.Context, prompt string, opts CallOptions) (string, error)
}

// StaticModelCaller is a deterministic, seedable stand-in for a real model
// backend. It never makes a network call; it echoes back a fixed-shape
// response derived from the prompt, which is enough for the orchestration
// core's agents to parse and for the pool/termination logic to exercise
// real control flow in tests.
type StaticModelCaller struct {
	rng *rand.Rand
}

// NewStaticModelCaller builds a StaticModelCaller seeded from seed, so
// that two runs with the same seed produce the same sequence of
// responses.
func NewStaticModelCaller(seed int64) *StaticModelCaller {
	return &StaticModelCaller{rng: rand.New(rand.NewSource(seed))}
}

// Call returns a short canned response referencing the prompt's first 30
// characters, matching the shape the original reference's placeholder
// `_call_model` produced.
func (c *StaticModelCaller) Call(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	n := len(prompt)
	if n > 30 {
		n = 30
	}
	return fmt.Sprintf("model response to: %s...", prompt[:n]), nil
}

// Rand exposes the caller's RNG so agents that need randomness tied to the
// same seeded stream (rather than a second independent source) can share
// it deterministically.
func (c *StaticModelCaller) Rand() *rand.Rand {
	return c.rng
}
