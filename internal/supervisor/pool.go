package supervisor

import (
	"context"
	"errors"
	"log"

	"github.com/ai-coscientist/orchestrator/internal/agents"
	"github.com/ai-coscientist/orchestrator/internal/blackboard"
	"github.com/ai-coscientist/orchestrator/internal/coserr"
	"github.com/ai-coscientist/orchestrator/internal/tasks"
)

// Pool runs a fixed number of worker goroutines pulling tasks off a
// tasks.Queue, looking up the capability in the agent registry, and
// invoking it against the shared blackboard. Grounded on the
// goroutine-per-worker, mutex-guarded-state pattern used throughout the
// teacher's dispatch code (internal/supervisor/dispatcher.go in the
// reference tree), generalized from spawning OS processes to invoking
// in-process agent capabilities.
type Pool struct {
	registry *agents.Registry
	bb       *blackboard.Blackboard
	log      *log.Logger
}

// NewPool builds a worker pool bound to the given registry and blackboard.
func NewPool(registry *agents.Registry, bb *blackboard.Blackboard, logger *log.Logger) *Pool {
	if logger == nil {
		logger = log.Default()
	}
	return &Pool{registry: registry, bb: bb, log: logger}
}

// Run starts n worker goroutines consuming from q until the queue is
// closed or ctx is cancelled. It blocks until every worker has exited.
func (p *Pool) Run(ctx context.Context, q *tasks.Queue, n int) error {
	if n < 1 {
		n = 1
	}

	consumers := make([]*tasks.Consumer, n)
	for i := range consumers {
		c, err := q.NewConsumer()
		if err != nil {
			return err
		}
		consumers[i] = c
	}

	done := make(chan struct{}, n)
	for i, c := range consumers {
		go p.worker(ctx, i, c, done)
	}
	for range consumers {
		<-done
	}
	return nil
}

func (p *Pool) worker(ctx context.Context, id int, c *tasks.Consumer, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()

	for {
		t, err := c.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, tasks.ErrQueueClosed) || ctx.Err() != nil {
				return
			}
			p.log.Printf("worker[%d]: dequeue error: %v", id, err)
			continue
		}
		p.execute(ctx, id, t)
	}
}

func (p *Pool) execute(ctx context.Context, workerID int, t tasks.Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Printf("worker[%d]: recovered from panic handling task %s/%s: %v", workerID, t.Capability, t.Kind, r)
		}
	}()

	agent, err := p.registry.Lookup(t.Capability)
	if err != nil {
		p.log.Printf("worker[%d]: %v", workerID, err)
		return
	}

	result, err := agent.Execute(ctx, t, p.bb)
	if err != nil {
		var conflict *coserr.BlackboardConflict
		if errors.As(err, &conflict) {
			p.log.Printf("worker[%d]: blackboard conflict on task %s: %v", workerID, t.ID, conflict)
			return
		}
		p.log.Printf("worker[%d]: task %s (%s/%s) failed: %v", workerID, t.ID, t.Capability, t.Kind, &coserr.TaskError{Capability: string(t.Capability), Kind: t.Kind, Err: err})
		return
	}

	p.applyResult(t, result)
}

// applyResult records an agent's result map under its task id. Every
// capability already commits its own mutations to the blackboard
// directly (AppendHypothesis, MarkReviewed, UpdateTournament,
// PutProximity) before returning, so nothing here needs to be folded back
// in a second time; the pool only keeps the raw result available for
// inspection, keyed by task id, the way the teacher's dispatch state keeps
// a record of each spawned agent's outcome.
func (p *Pool) applyResult(t tasks.Task, result map[string]any) {
	p.bb.Put("task_result_"+t.ID, result)
}
