package runset

import (
	"sync"

	"github.com/zonepipe/zonepipe/internal/domain/pipeline"
)

// RunnableStep is the mutable, per-run scheduling wrapper around a validated
// step (§3). Status is guarded by its own mutex so the supervisor and a
// step's driver goroutine can update it concurrently without taking a
// set-wide lock (§5).
type RunnableStep struct {
	Step pipeline.ValidatedStep

	mu        sync.Mutex
	status    Status
	blockedBy string
	exitCode  int
}

func newRunnableStep(step pipeline.ValidatedStep) *RunnableStep {
	return &RunnableStep{Step: step, status: Pending}
}

// Status returns the step's current status.
func (r *RunnableStep) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// BlockedBy returns the name of the dependency (Failed, or itself Skipped)
// that caused this step to be Skipped, if any.
func (r *RunnableStep) BlockedBy() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blockedBy
}

// ExitCode returns the process exit code recorded for a Finished or Failed
// step.
func (r *RunnableStep) ExitCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exitCode
}

// markRunning transitions Pending -> Running. Callers must already hold the
// set-wide scheduling lock when calling this so the transition and the
// "claimed" bookkeeping happen atomically; see StepSet.ReadySteps.
func (r *RunnableStep) markRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != Pending {
		return false
	}
	r.status = Running
	return true
}

func (r *RunnableStep) markFinished(exitCode int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = Finished
	r.exitCode = exitCode
}

func (r *RunnableStep) markFailed(exitCode int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = Failed
	r.exitCode = exitCode
}

// Finish records a successful exit (Running -> Finished). Exported for the
// Step Execution Engine to call once a spawned process exits zero.
func (r *RunnableStep) Finish(exitCode int) {
	r.markFinished(exitCode)
}

// Fail records a failed exit (Running -> Failed). Exported for the Step
// Execution Engine to call once a spawned process exits non-zero, or fails
// to spawn at all (§4.D, §9: non-zero exit is always Failed, never
// Finished).
func (r *RunnableStep) Fail(exitCode int) {
	r.markFailed(exitCode)
}

func (r *RunnableStep) markSkipped(blockedBy string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status.Terminal() {
		return
	}
	r.status = Skipped
	r.blockedBy = blockedBy
}

func (r *RunnableStep) markCancelled() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status.Terminal() {
		return
	}
	r.status = Cancelled
}
