// Package tasks implements the bounded multi-producer/multi-consumer task
// queue workers pull from. Transport is an embedded NATS core server
// (github.com/nats-io/nats-server/v2) with queue-group subscriptions, so
// each enqueued task is delivered to exactly one worker — the same
// embedded-NATS pattern the teacher uses for its own agent/supervisor
// traffic (internal/nats, cmd/nats-bridge), reused here for the task
// queue's transport instead of a bare Go channel.
package tasks

// Capability names the agent a task targets. Kept as a plain string type
// here (mirrored by internal/agents.Capability) so this package has no
// dependency on the agent registry.
type Capability string

const (
	CapabilityGeneration Capability = "generation"
	CapabilityReflection Capability = "reflection"
	CapabilityRanking    Capability = "ranking"
	CapabilityProximity  Capability = "proximity"
	CapabilityEvolution  Capability = "evolution"
	CapabilityMetaReview Capability = "meta_review"
)

// Task is one small unit of work tagged with the capability that should
// handle it.
type Task struct {
	ID         string         `json:"id"`
	Capability Capability     `json:"capability"`
	Kind       string         `json:"kind"`
	Payload    map[string]any `json:"payload"`
}
