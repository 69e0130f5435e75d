package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildValidDraft() *Pipeline {
	p := &Pipeline{Name: SetValue("demo")}
	p.AddRepo().Set("url", "https://example.com/demo.git")
	pkg := p.AddPackage()
	pkg.Set("name", "git")
	pkg.Set("provider", "system")
	setup := p.AddStep()
	setup.Set("name", "setup")
	setup.Set("script", "scripts/setup.sh")
	build := p.AddStep()
	build.Set("name", "build")
	build.Set("script", "scripts/build.sh")
	build.Set("depends", "setup")
	return p
}

func TestPipelineValidate(t *testing.T) {
	p := buildValidDraft()
	vp, err := p.Validate()
	require.NoError(t, err)
	assert.Equal(t, "demo", vp.Name)
	assert.Len(t, vp.Steps, 2)
	assert.Len(t, vp.Repos, 1)
	assert.Len(t, vp.Packages, 1)
}

func TestPipelineValidateMissingName(t *testing.T) {
	p := &Pipeline{}
	_, err := p.Validate()
	requireCode(t, err, ErrCodeMissing)
}

func TestPipelineValidateDuplicateStep(t *testing.T) {
	p := &Pipeline{Name: SetValue("dup")}
	for i := 0; i < 2; i++ {
		s := p.AddStep()
		s.Set("name", "build")
		s.Set("script", "scripts/build.sh")
	}
	_, err := p.Validate()
	requireCode(t, err, ErrCodeDuplicate)
}

func TestPipelineValidateUnknownDependency(t *testing.T) {
	p := &Pipeline{Name: SetValue("bad-dep")}
	s := p.AddStep()
	s.Set("name", "build")
	s.Set("script", "scripts/build.sh")
	s.Set("depends", "missing")

	_, err := p.Validate()
	requireCode(t, err, ErrCodeDependency)
}

func TestPipelineDegradeRoundTrip(t *testing.T) {
	p := buildValidDraft()
	vp, err := p.Validate()
	require.NoError(t, err)

	degraded := vp.Degrade()
	redone, err := degraded.Validate()
	require.NoError(t, err)
	assert.Equal(t, vp, redone)
}

func TestPipelineStepByName(t *testing.T) {
	p := buildValidDraft()
	vp, err := p.Validate()
	require.NoError(t, err)

	step, ok := vp.StepByName("build")
	require.True(t, ok)
	assert.Equal(t, []string{"setup"}, step.DependencyNames())

	_, ok = vp.StepByName("missing")
	assert.False(t, ok)
}

func TestPipelineFilterAndLabel(t *testing.T) {
	p := &Pipeline{Name: SetValue("demo")}
	assert.Equal(t, "pipeline(demo)", p.Label())
	assert.True(t, p.Filter(&Filter{Key: "name", Value: "demo"}))
	assert.False(t, p.Filter(&Filter{Key: "name", Value: "other"}))
}
