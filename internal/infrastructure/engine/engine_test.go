package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainpipeline "github.com/zonepipe/zonepipe/internal/domain/pipeline"
	"github.com/zonepipe/zonepipe/internal/domain/runset"
	"github.com/zonepipe/zonepipe/internal/ports"
)

// fakeHost spawns no real process; it replays scripted output and exit
// codes keyed by script name, so tests never touch a real zone.
type fakeHost struct {
	scripts map[string]fakeScript
}

type fakeScript struct {
	stdout   []string
	exitCode int
	spawnErr error
	delay    time.Duration
}

type fakeChild struct {
	stdout   chan string
	stderr   chan string
	exitCode int
	delay    time.Duration
}

func (c *fakeChild) Stdout() <-chan string { return c.stdout }
func (c *fakeChild) Stderr() <-chan string { return c.stderr }
func (c *fakeChild) Kill() error           { return nil }
func (c *fakeChild) Wait() (int, error) {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	close(c.stdout)
	close(c.stderr)
	return c.exitCode, nil
}

func (h *fakeHost) Spawn(ctx context.Context, zone, script string) (ports.ChildHandle, error) {
	s, ok := h.scripts[script]
	if !ok {
		s = fakeScript{exitCode: 0}
	}
	if s.spawnErr != nil {
		return nil, s.spawnErr
	}
	child := &fakeChild{
		stdout:   make(chan string, len(s.stdout)+1),
		stderr:   make(chan string, 1),
		exitCode: s.exitCode,
		delay:    s.delay,
	}
	for _, line := range s.stdout {
		child.stdout <- line
	}
	return child, nil
}

func buildSet(t *testing.T, steps ...domainpipeline.ValidatedStep) *runset.StepSet {
	t.Helper()
	set, err := runset.Validate(steps)
	require.NoError(t, err)
	return set
}

func step(name string, script string, deps ...string) domainpipeline.ValidatedStep {
	vs := domainpipeline.ValidatedStep{Name: name, Script: script}
	for _, d := range deps {
		vs.DependsOn = append(vs.DependsOn, domainpipeline.ValidatedDependency{Name: d})
	}
	return vs
}

func TestEngineRunAllFinished(t *testing.T) {
	host := &fakeHost{scripts: map[string]fakeScript{
		"fetch.sh": {exitCode: 0, stdout: []string{"cloning"}},
		"build.sh": {exitCode: 0, stdout: []string{"compiling"}},
	}}
	set := buildSet(t, step("fetch", "fetch.sh"), step("build", "build.sh", "fetch"))

	e := New(host)
	report, err := e.Run(context.Background(), "zone0", set)
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "finished", set.Step("fetch").Status().String())
	assert.Equal(t, "finished", set.Step("build").Status().String())
}

func TestEngineRunPropagatesSkip(t *testing.T) {
	host := &fakeHost{scripts: map[string]fakeScript{
		"fetch.sh": {exitCode: 1},
	}}
	set := buildSet(t,
		step("fetch", "fetch.sh"),
		step("build", "build.sh", "fetch"),
		step("test", "test.sh", "build"),
	)

	e := New(host)
	_, err := e.Run(context.Background(), "zone0", set)
	require.NoError(t, err)

	assert.Equal(t, runset.Failed, set.Step("fetch").Status())
	assert.Equal(t, runset.Skipped, set.Step("build").Status())
	assert.Equal(t, "fetch", set.Step("build").BlockedBy())
	assert.Equal(t, runset.Skipped, set.Step("test").Status())
}

func TestEngineRunCancellation(t *testing.T) {
	host := &fakeHost{scripts: map[string]fakeScript{
		"slow.sh": {exitCode: 0, delay: 200 * time.Millisecond},
	}}
	set := buildSet(t, step("slow", "slow.sh"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	e := New(host)
	_, err := e.Run(ctx, "zone0", set)
	require.Error(t, err)

	var domainErr *domainpipeline.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainpipeline.ErrCodeCancelled, domainErr.Code)
}

func TestEngineSpawnErrorFailsStep(t *testing.T) {
	host := &fakeHost{scripts: map[string]fakeScript{
		"fetch.sh": {spawnErr: assertErr("zlogin not found")},
	}}
	set := buildSet(t, step("fetch", "fetch.sh"))

	e := New(host)
	_, err := e.Run(context.Background(), "zone0", set)
	require.NoError(t, err)
	assert.Equal(t, runset.Failed, set.Step("fetch").Status())
}

type stringErr string

func (e stringErr) Error() string { return string(e) }

func assertErr(msg string) error { return stringErr(msg) }
