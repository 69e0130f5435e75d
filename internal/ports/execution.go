package ports

import (
	"context"

	"github.com/zonepipe/zonepipe/internal/domain/runset"
)

// StepEngine runs a validated step set to completion, dynamically
// discovering newly-runnable steps as their dependencies finish (§4.D). It
// is the contract the Step Execution Engine component implements.
//
// Run blocks until every step in set reaches a terminal status. If ctx is
// cancelled, Pending steps are marked Cancelled and Run returns once the
// steps already Running have exited.
type StepEngine interface {
	Run(ctx context.Context, zone string, set *runset.StepSet) (RunReport, error)
}

// RunReport summarizes a completed, failed, or cancelled run.
type RunReport struct {
	RunID     string
	StartedAt int64
	EndedAt   int64
	Steps     []StepReport
}

// StepReport is the terminal outcome of a single step within a run.
type StepReport struct {
	Name      string
	Status    string
	ExitCode  int
	BlockedBy string
}
