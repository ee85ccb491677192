package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// ErrQueueClosed is the sentinel Dequeue returns once the queue has been
// shut down. It is not an error condition for a worker — §7 classifies
// shutdown as cooperative, normal exit.
var ErrQueueClosed = errors.New("tasks: queue closed")

const subject = "tasks.dispatch"
const queueGroup = "workers"

// Queue is a bounded FIFO shared by every producer (the supervisor) and
// every consumer (the worker pool), transported over an embedded,
// loopback-only NATS core server so multiple concurrent consumers can
// queue-subscribe and each task lands on exactly one of them.
type Queue struct {
	srv  *server.Server
	conn *nats.Conn
	sem  chan struct{} // capacity slots; acquired on Enqueue, released on Dequeue
}

// NewQueue starts an embedded NATS server bound to the loopback interface
// and returns a Queue with room for `capacity` in-flight (enqueued, not
// yet dequeued) tasks.
func NewQueue(capacity int) (*Queue, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("tasks: capacity must be positive, got %d", capacity)
	}

	opts := &server.Options{
		Host:   "127.0.0.1",
		Port:   -1, // let the OS assign a free loopback port
		NoSigs: true,
		NoLog:  true,
	}
	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("tasks: start embedded nats server: %w", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		return nil, fmt.Errorf("tasks: embedded nats server not ready")
	}

	addr, ok := ns.Addr().(*net.TCPAddr)
	if !ok {
		ns.Shutdown()
		return nil, fmt.Errorf("tasks: unexpected listener address type")
	}

	conn, err := nats.Connect(fmt.Sprintf("nats://127.0.0.1:%d", addr.Port))
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("tasks: connect to embedded nats server: %w", err)
	}

	return &Queue{
		srv:  ns,
		conn: conn,
		sem:  make(chan struct{}, capacity),
	}, nil
}

// Enqueue blocks until there is room in the queue (or ctx is done), then
// publishes the task. FIFO ordering is guaranteed per-producer; the
// supervisor is the queue's only producer, so queue order equals enqueue
// order.
func (q *Queue) Enqueue(ctx context.Context, t Task) error {
	select {
	case q.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	data, err := json.Marshal(t)
	if err != nil {
		<-q.sem
		return fmt.Errorf("tasks: marshal task: %w", err)
	}

	if err := q.conn.Publish(subject, data); err != nil {
		<-q.sem
		return fmt.Errorf("tasks: publish task: %w", err)
	}
	return nil
}

// Consumer is one worker's view onto the shared queue. Every Consumer
// created from the same Queue shares the NATS queue group, so a published
// task is delivered to exactly one of them.
type Consumer struct {
	q   *Queue
	sub *nats.Subscription
}

// NewConsumer creates a queue-group subscription for one worker.
func (q *Queue) NewConsumer() (*Consumer, error) {
	sub, err := q.conn.QueueSubscribeSync(subject, queueGroup)
	if err != nil {
		return nil, fmt.Errorf("tasks: subscribe: %w", err)
	}
	return &Consumer{q: q, sub: sub}, nil
}

// Dequeue blocks until a task is available, ctx is cancelled, or the queue
// is shut down (ErrQueueClosed).
func (c *Consumer) Dequeue(ctx context.Context) (Task, error) {
	msg, err := c.sub.NextMsgWithContext(ctx)
	if err != nil {
		if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) || errors.Is(err, nats.ErrConnectionDraining) {
			return Task{}, ErrQueueClosed
		}
		if ctx.Err() != nil {
			return Task{}, ctx.Err()
		}
		return Task{}, fmt.Errorf("tasks: dequeue: %w", err)
	}

	select {
	case <-c.q.sem:
	default:
	}

	var t Task
	if err := json.Unmarshal(msg.Data, &t); err != nil {
		return Task{}, fmt.Errorf("tasks: unmarshal task: %w", err)
	}
	return t, nil
}

// Shutdown wakes every blocked Dequeue call (they observe ErrQueueClosed)
// and tears down the embedded server. Safe to call once, after every
// worker has been told to stop accepting new work.
func (q *Queue) Shutdown() {
	if q.conn != nil {
		q.conn.Close()
	}
	if q.srv != nil {
		q.srv.Shutdown()
		q.srv.WaitForShutdown()
	}
}
