package runset

import (
	"sort"
	"sync"

	"github.com/zonepipe/zonepipe/internal/domain/pipeline"
)

// StepSet is the validated, scheduling-ready form of a pipeline's steps
// (§3 StepSet). It holds the dependency graph plus a RunnableStep per step
// and implements the readiness scan that drives §4.D's "scan on change"
// scheduler: rather than precomputing levels up front, the engine re-scans
// this set for newly-ready steps every time a step's status changes.
type StepSet struct {
	mu          sync.Mutex
	order       []string
	byName      map[string]*RunnableStep
	dependsOn   map[string][]string
	dependents  map[string][]string
}

func newStepSet(steps []pipeline.ValidatedStep, dependents map[string][]string) *StepSet {
	order := make([]string, 0, len(steps))
	byName := make(map[string]*RunnableStep, len(steps))
	dependsOn := make(map[string][]string, len(steps))
	for _, s := range steps {
		order = append(order, s.Name)
		byName[s.Name] = newRunnableStep(s)
		dependsOn[s.Name] = s.DependencyNames()
	}
	sort.Strings(order)
	return &StepSet{order: order, byName: byName, dependsOn: dependsOn, dependents: dependents}
}

// Len reports how many steps are in the set.
func (s *StepSet) Len() int {
	return len(s.order)
}

// Names returns the step names in stable, sorted order.
func (s *StepSet) Names() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Step returns the RunnableStep for name, or nil if unknown.
func (s *StepSet) Step(name string) *RunnableStep {
	return s.byName[name]
}

// Steps returns every RunnableStep in stable, sorted order, for dashboard
// and report rendering.
func (s *StepSet) Steps() []*RunnableStep {
	out := make([]*RunnableStep, len(s.order))
	for i, name := range s.order {
		out[i] = s.byName[name]
	}
	return out
}

// ReadySteps scans every Pending step and atomically claims (transitions to
// Running) every one whose dependencies have all Finished. This is the
// "scan on change" readiness check of §4.D: called once up front and again
// after every terminal-status transition, instead of following a
// precomputed level plan.
func (s *StepSet) ReadySteps() []*RunnableStep {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ready []*RunnableStep
	for _, name := range s.order {
		step := s.byName[name]
		if step.Status() != Pending {
			continue
		}
		if !s.dependenciesFinished(name) {
			continue
		}
		if step.markRunning() {
			ready = append(ready, step)
		}
	}
	return ready
}

func (s *StepSet) dependenciesFinished(name string) bool {
	for _, dep := range s.dependsOn[name] {
		if s.byName[dep].Status() != Finished {
			return false
		}
	}
	return true
}

// PropagateFailure marks every transitive dependent of failedName as
// Skipped, recording the nearest failed or skipped ancestor as blocked_by
// (§4.D's Failed -> dependents become Skipped(blocked_by=...) rule). It
// must be called immediately after a step is marked Failed, under the same
// scan-on-change cycle that discovered the failure.
func (s *StepSet) PropagateFailure(failedName string) []*RunnableStep {
	s.mu.Lock()
	defer s.mu.Unlock()

	var skipped []*RunnableStep
	queue := []string{failedName}
	seen := map[string]struct{}{failedName: {}}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		next := append([]string(nil), s.dependents[name]...)
		sort.Strings(next)
		for _, dep := range next {
			if _, ok := seen[dep]; ok {
				continue
			}
			seen[dep] = struct{}{}
			step := s.byName[dep]
			if step.Status() == Pending {
				step.markSkipped(name)
				skipped = append(skipped, step)
			}
			queue = append(queue, dep)
		}
	}
	return skipped
}

// AllTerminal reports whether every step in the set has reached a terminal
// status, the condition the supervisor waits on to end a run (§4.D, §5).
func (s *StepSet) AllTerminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range s.order {
		if !s.byName[name].Status().Terminal() {
			return false
		}
	}
	return true
}

// CancelPending marks every step still Pending as Cancelled, implementing
// the caller-context-cancellation path of §5. Running steps are left as they
// are; their driver records Finished or Failed when the process exits.
func (s *StepSet) CancelPending() []*RunnableStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cancelled []*RunnableStep
	for _, name := range s.order {
		step := s.byName[name]
		if step.Status() == Pending {
			step.markCancelled()
			cancelled = append(cancelled, step)
		}
	}
	return cancelled
}
