package runset

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonepipe/zonepipe/internal/domain/pipeline"
)

func step(name string, deps ...string) pipeline.ValidatedStep {
	vs := pipeline.ValidatedStep{Name: name, Script: name + ".sh"}
	for _, d := range deps {
		vs.DependsOn = append(vs.DependsOn, pipeline.ValidatedDependency{Name: d})
	}
	return vs
}

func TestValidateBuildsStepSet(t *testing.T) {
	steps := []pipeline.ValidatedStep{
		step("fetch"),
		step("build", "fetch"),
		step("test", "build"),
	}

	set, err := Validate(steps)
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())
	assert.Equal(t, []string{"build", "fetch", "test"}, set.Names())
}

func TestValidateUnknownDependency(t *testing.T) {
	steps := []pipeline.ValidatedStep{step("build", "missing")}
	_, err := Validate(steps)

	var domainErr *pipeline.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, pipeline.ErrCodeDependency, domainErr.Code)
}

func TestValidateDuplicateStep(t *testing.T) {
	steps := []pipeline.ValidatedStep{step("build"), step("build")}
	_, err := Validate(steps)

	var domainErr *pipeline.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, pipeline.ErrCodeDuplicate, domainErr.Code)
}

func TestValidateDependencyCycle(t *testing.T) {
	steps := []pipeline.ValidatedStep{step("a", "b"), step("b", "a")}
	_, err := Validate(steps)

	var domainErr *pipeline.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, pipeline.ErrCodeCycle, domainErr.Code)
}

func TestReadyStepsScanOnChange(t *testing.T) {
	steps := []pipeline.ValidatedStep{
		step("fetch"),
		step("build", "fetch"),
		step("test", "build"),
	}
	set, err := Validate(steps)
	require.NoError(t, err)

	ready := set.ReadySteps()
	require.Len(t, ready, 1)
	assert.Equal(t, "fetch", ready[0].Step.Name)

	assert.Empty(t, set.ReadySteps(), "fetch already claimed as Running")

	set.Step("fetch").markFinished(0)
	ready = set.ReadySteps()
	require.Len(t, ready, 1)
	assert.Equal(t, "build", ready[0].Step.Name)
}

func TestPropagateFailureSkipsTransitiveDependents(t *testing.T) {
	steps := []pipeline.ValidatedStep{
		step("fetch"),
		step("build", "fetch"),
		step("test", "build"),
		step("lint", "fetch"),
	}
	set, err := Validate(steps)
	require.NoError(t, err)

	set.Step("fetch").markFailed(1)
	skipped := set.PropagateFailure("fetch")

	names := make([]string, len(skipped))
	for i, s := range skipped {
		names[i] = s.Step.Name
	}
	assert.ElementsMatch(t, []string{"build", "test", "lint"}, names)
	assert.Equal(t, Skipped, set.Step("build").Status())
	assert.Equal(t, "fetch", set.Step("build").BlockedBy())
	assert.Equal(t, Skipped, set.Step("test").Status())
}

func TestAllTerminal(t *testing.T) {
	steps := []pipeline.ValidatedStep{step("fetch")}
	set, err := Validate(steps)
	require.NoError(t, err)

	assert.False(t, set.AllTerminal())
	set.ReadySteps()
	set.Step("fetch").markFinished(0)
	assert.True(t, set.AllTerminal())
}

func TestCancelPending(t *testing.T) {
	steps := []pipeline.ValidatedStep{step("fetch"), step("build", "fetch")}
	set, err := Validate(steps)
	require.NoError(t, err)

	cancelled := set.CancelPending()
	require.Len(t, cancelled, 2)
	assert.Equal(t, Cancelled, set.Step("fetch").Status())
	assert.Equal(t, Cancelled, set.Step("build").Status())
}
