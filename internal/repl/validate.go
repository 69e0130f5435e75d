package repl

import (
	"github.com/zonepipe/zonepipe/internal/domain/pipeline"
	"github.com/zonepipe/zonepipe/internal/domain/runset"
)

// buildStepSet runs the DAG Validator's acyclicity check before a pipeline
// is persisted, so `save` rejects a draft with a dependency cycle instead
// of letting it reach disk (§3 invariant 3, §4.C check 3).
func buildStepSet(p pipeline.ValidatedPipeline) (*runset.StepSet, error) {
	return runset.Validate(p.Steps)
}
