package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	pipeline "github.com/zonepipe/zonepipe/internal/domain/pipeline"
	"github.com/zonepipe/zonepipe/internal/domain/runset"
	"github.com/zonepipe/zonepipe/internal/infrastructure/logging"
	"github.com/zonepipe/zonepipe/internal/ports"
)

// Engine is the Step Execution Engine (§4.D, CORE component). Rather than
// precomputing a level-by-level plan, it re-scans the step set for newly
// runnable steps every time a step reaches a terminal status, so a step
// becomes eligible the instant its dependencies finish instead of waiting
// for its whole level to drain.
type Engine struct {
	host    ports.ProcessHost
	logger  ports.Logger
	metrics ports.MetricsCollector
	events  ports.EventPublisher
	sink    ports.OutputSink
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithEngineLogger injects a logger.
func WithEngineLogger(logger ports.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithEngineMetrics injects a metrics collector.
func WithEngineMetrics(metrics ports.MetricsCollector) Option {
	return func(e *Engine) { e.metrics = metrics }
}

// WithEngineEvents injects an event publisher.
func WithEngineEvents(events ports.EventPublisher) Option {
	return func(e *Engine) { e.events = events }
}

// WithEngineSink injects the tagged-line output sink.
func WithEngineSink(sink ports.OutputSink) Option {
	return func(e *Engine) { e.sink = sink }
}

// New constructs an Engine backed by host.
func New(host ports.ProcessHost, opts ...Option) *Engine {
	e := &Engine{
		host:   host,
		logger: logging.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run implements ports.StepEngine. It blocks until every step in set has
// reached a terminal status; on ctx cancellation it marks Pending steps
// Cancelled and waits for the steps already Running to exit.
func (e *Engine) Run(ctx context.Context, zone string, set *runset.StepSet) (ports.RunReport, error) {
	runID := uuid.NewString()
	started := time.Now()

	e.publish(ctx, ports.EventRunStarted, map[string]interface{}{"run_id": runID, "zone": zone})
	e.logger.Info(ctx, "run started", "run_id", runID, "zone", zone, "steps", set.Len())

	var mu sync.Mutex
	cond := sync.NewCond(&mu)
	running := 0
	supervisorDone := make(chan struct{})

	go func() {
		select {
		case <-ctx.Done():
			set.CancelPending()
			mu.Lock()
			cond.Broadcast()
			mu.Unlock()
		case <-supervisorDone:
		}
	}()
	defer close(supervisorDone)

	for {
		mu.Lock()
		ready := set.ReadySteps()
		for _, step := range ready {
			running++
			go e.driveStep(ctx, runID, zone, step, set, &mu, cond, &running)
		}
		if set.AllTerminal() {
			mu.Unlock()
			break
		}
		if len(ready) == 0 && running == 0 {
			// No ready steps and nothing in flight, yet the set is not
			// fully terminal: only possible if validation let through a
			// step whose dependency graph this run left stranded. Treat
			// remaining Pending steps as cancelled rather than hang.
			set.CancelPending()
			mu.Unlock()
			break
		}
		cond.Wait()
		mu.Unlock()
	}

	ended := time.Now()
	report := ports.RunReport{RunID: runID, StartedAt: started.Unix(), EndedAt: ended.Unix()}
	for _, step := range set.Steps() {
		report.Steps = append(report.Steps, ports.StepReport{
			Name:      step.Step.Name,
			Status:    step.Status().String(),
			ExitCode:  step.ExitCode(),
			BlockedBy: step.BlockedBy(),
		})
	}

	e.recordRunMetrics(ctx, report, ended.Sub(started))

	if ctx.Err() != nil {
		e.publish(ctx, ports.EventRunCancelled, map[string]interface{}{"run_id": runID})
		e.logger.Warn(ctx, "run cancelled", "run_id", runID)
		return report, &pipeline.DomainError{Code: pipeline.ErrCodeCancelled, Message: "run cancelled", Cause: ctx.Err()}
	}

	e.publish(ctx, ports.EventRunCompleted, map[string]interface{}{"run_id": runID})
	e.logger.Info(ctx, "run completed", "run_id", runID, "duration_ms", ended.Sub(started).Milliseconds())
	return report, nil
}

// driveStep is the per-step driver goroutine: it spawns the step's script,
// pumps its stdout/stderr into the sink concurrently with waiting on exit,
// and on completion updates the step set and wakes the supervisor.
func (e *Engine) driveStep(ctx context.Context, runID, zone string, step *runset.RunnableStep, set *runset.StepSet, mu *sync.Mutex, cond *sync.Cond, running *int) {
	defer func() {
		mu.Lock()
		*running--
		cond.Broadcast()
		mu.Unlock()
	}()

	name := step.Step.Name
	e.publish(ctx, ports.EventStepStarted, map[string]interface{}{"run_id": runID, "step": name})
	e.logger.Info(ctx, "step started", "run_id", runID, "step", name)
	start := time.Now()

	child, err := e.host.Spawn(ctx, zone, step.Step.Script)
	if err != nil {
		step.Fail(-1)
		e.logger.Error(ctx, "step failed to spawn", "run_id", runID, "step", name, "error", err)
		e.publish(ctx, ports.EventStepFailed, map[string]interface{}{"run_id": runID, "step": name, "error": err.Error()})
		e.recordStepMetrics(ctx, name, "failed", time.Since(start))
		e.propagateFailure(ctx, runID, set, name)
		return
	}

	var pump sync.WaitGroup
	pump.Add(2)
	go e.pumpLines(&pump, name, "stdout", child.Stdout())
	go e.pumpLines(&pump, name, "stderr", child.Stderr())

	exitCode, waitErr := child.Wait()
	pump.Wait()

	if waitErr != nil || exitCode != 0 {
		step.Fail(exitCode)
		e.logger.Error(ctx, "step failed", "run_id", runID, "step", name, "exit_code", exitCode, "error", waitErr)
		e.publish(ctx, ports.EventStepFailed, map[string]interface{}{"run_id": runID, "step": name, "exit_code": exitCode})
		e.recordStepMetrics(ctx, name, "failed", time.Since(start))
		e.propagateFailure(ctx, runID, set, name)
		return
	}

	step.Finish(exitCode)
	e.logger.Info(ctx, "step finished", "run_id", runID, "step", name, "duration_ms", time.Since(start).Milliseconds())
	e.publish(ctx, ports.EventStepFinished, map[string]interface{}{"run_id": runID, "step": name})
	e.recordStepMetrics(ctx, name, "finished", time.Since(start))
}

func (e *Engine) pumpLines(wg *sync.WaitGroup, step, stream string, lines <-chan string) {
	defer wg.Done()
	for line := range lines {
		if e.sink != nil {
			e.sink.Line(step, stream, line)
		}
	}
}

func (e *Engine) propagateFailure(ctx context.Context, runID string, set *runset.StepSet, failedName string) {
	skipped := set.PropagateFailure(failedName)
	for _, step := range skipped {
		e.logger.Info(ctx, "step skipped", "run_id", runID, "step", step.Step.Name, "blocked_by", step.BlockedBy())
		e.publish(ctx, ports.EventStepSkipped, map[string]interface{}{
			"run_id":     runID,
			"step":       step.Step.Name,
			"blocked_by": step.BlockedBy(),
		})
		e.recordStepMetrics(ctx, step.Step.Name, "skipped", 0)
	}
}

func (e *Engine) recordStepMetrics(ctx context.Context, step, status string, duration time.Duration) {
	if e.metrics == nil {
		return
	}
	labels := map[string]string{"step": step, "status": status}
	e.metrics.IncCounter(ctx, "zonepipe_step_total", labels)
	if duration > 0 {
		e.metrics.ObserveHistogram(ctx, "zonepipe_step_duration_seconds", duration.Seconds(), labels)
	}
}

func (e *Engine) recordRunMetrics(ctx context.Context, report ports.RunReport, duration time.Duration) {
	if e.metrics == nil {
		return
	}
	status := "finished"
	for _, s := range report.Steps {
		if s.Status == "failed" || s.Status == "cancelled" {
			status = s.Status
			break
		}
	}
	labels := map[string]string{"status": status}
	e.metrics.IncCounter(ctx, "zonepipe_run_total", labels)
	e.metrics.ObserveHistogram(ctx, "zonepipe_run_duration_seconds", duration.Seconds(), labels)
}

type engineEvent struct {
	eventType string
	payload   interface{}
}

func (ev engineEvent) EventType() string    { return ev.eventType }
func (ev engineEvent) Payload() interface{} { return ev.payload }

func (e *Engine) publish(ctx context.Context, eventType string, payload map[string]interface{}) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(ctx, engineEvent{eventType: eventType, payload: payload}); err != nil {
		e.logger.Warn(ctx, "failed to publish engine event", "event_type", eventType, "error", err)
	}
}

var _ ports.StepEngine = (*Engine)(nil)
