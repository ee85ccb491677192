package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event published on the bus.
type EventType string

// Event type constants. Target "all" is a reserved broadcast destination;
// any other target is a plain routing string. The blackboard and the
// supervisor publish every event under "dashboard".
const (
	EventHypothesisAdded   EventType = "hypothesis_added"
	EventReviewRecorded    EventType = "review_recorded"
	EventMatchRecorded     EventType = "match_recorded"
	EventProximityUpdated  EventType = "proximity_updated"
	EventStatisticsUpdated EventType = "statistics_updated"
	EventRunCompleted      EventType = "run_completed"
)

// Priority constants for events.
const (
	PriorityCritical = 1
	PriorityHigh     = 2
	PriorityNormal   = 3
	PriorityLow      = 4
)

// Event represents a blackboard mutation or run-lifecycle notification that
// can be published and subscribed to.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"`
	Target    string                 `json:"target"`
	Priority  int                    `json:"priority"`
	Payload   map[string]interface{} `json:"payload"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewEvent creates a new event with auto-generated ID and timestamp.
func NewEvent(eventType EventType, source, target string, priority int, payload map[string]interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Target:    target,
		Priority:  priority,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}

// AllEventTypes returns all defined event types.
func AllEventTypes() []EventType {
	return []EventType{
		EventHypothesisAdded,
		EventReviewRecorded,
		EventMatchRecorded,
		EventProximityUpdated,
		EventStatisticsUpdated,
		EventRunCompleted,
	}
}
