package ports

import "context"

const (
	// EventRunStarted is emitted when the engine begins running a step set.
	EventRunStarted = "run.started"
	// EventRunCompleted is emitted once every step has reached a terminal status.
	EventRunCompleted = "run.completed"
	// EventRunCancelled is emitted when the caller's context is cancelled mid-run.
	EventRunCancelled = "run.cancelled"
	// EventStepStarted is emitted when a step transitions Pending -> Running.
	EventStepStarted = "step.started"
	// EventStepFinished is emitted when a step transitions Running -> Finished.
	EventStepFinished = "step.finished"
	// EventStepFailed is emitted when a step transitions Running -> Failed.
	EventStepFailed = "step.failed"
	// EventStepSkipped is emitted when a step is marked Skipped because a
	// dependency Failed.
	EventStepSkipped = "step.skipped"
)

// DomainEvent represents a significant occurrence within the engine. Events
// carry structured payloads that downstream subscribers (loggers, the
// dashboard, metrics) can use.
type DomainEvent interface {
	EventType() string
	Payload() interface{}
}

// EventPublisher distributes events to interested subscribers. Dispatch is
// synchronous: Publish blocks until all handlers run, so observability
// signals are recorded before the caller proceeds. Implementations must be
// safe for concurrent use, since the engine publishes from multiple step
// driver goroutines at once.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
	Subscribe(eventType string, handler EventHandler) (Subscription, error)
}

// EventHandler processes an event of a specific type. Handlers should avoid
// panicking; failures are logged and do not block other subscribers.
type EventHandler func(context.Context, DomainEvent) error

// Subscription represents a registered handler. Callers must invoke
// Unsubscribe to stop receiving events and release resources.
type Subscription interface {
	Unsubscribe()
}
