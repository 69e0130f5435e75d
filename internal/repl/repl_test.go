package repl

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonepipe/zonepipe/internal/infrastructure/persistence"
)

func newTestREPL(t *testing.T) (*REPL, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	store := persistence.New(t.TempDir())
	r := New(store, "demo", WithOutput(&buf))
	return r, &buf
}

func run(t *testing.T, r *REPL, lines ...string) {
	t.Helper()
	for _, line := range lines {
		_, err := r.Execute(line)
		require.NoError(t, err, "line %q", line)
	}
}

func TestREPLAddAndSetStep(t *testing.T) {
	r, _ := newTestREPL(t)
	run(t, r,
		"add step",
		"set name=build",
		"set script=scripts/build.sh",
		"up",
	)

	require.Len(t, r.draft.Steps, 1)
	name, _ := r.draft.Steps[0].Name.Get()
	assert.Equal(t, "build", name)
	assert.Empty(t, r.stack)
}

func TestREPLSelectByAttribute(t *testing.T) {
	r, _ := newTestREPL(t)
	run(t, r,
		"add step",
		"set name=fetch",
		"set script=scripts/fetch.sh",
		"up",
		"add step",
		"set name=build",
		"set script=scripts/build.sh",
		"set depends=fetch",
		"up",
		"select step name=fetch",
	)

	require.Len(t, r.stack, 1)
	assert.Equal(t, "step", r.stack[0].kind)
	assert.Equal(t, 0, r.stack[0].index)
}

func TestREPLSelectNotFound(t *testing.T) {
	r, _ := newTestREPL(t)
	_, err := r.Execute("select step name=missing")
	require.Error(t, err)
}

func TestREPLSaveAndLoad(t *testing.T) {
	r, buf := newTestREPL(t)
	run(t, r,
		"add repo",
		"set url=https://example.com/demo.git",
		"up",
		"add step",
		"set name=build",
		"set script=scripts/build.sh",
		"up",
		"save",
	)
	assert.Contains(t, buf.String(), "saved")

	r2 := New(r.store, "other", WithOutput(buf))
	run(t, r2, "load demo")
	require.Len(t, r2.draft.Steps, 1)
	name, _ := r2.draft.Steps[0].Name.Get()
	assert.Equal(t, "build", name)
}

func TestREPLSaveRejectsCycle(t *testing.T) {
	r, _ := newTestREPL(t)
	run(t, r,
		"add step",
		"set name=a",
		"set script=a.sh",
		"set depends=b",
		"up",
		"add step",
		"set name=b",
		"set script=b.sh",
		"set depends=a",
		"up",
	)

	_, err := r.Execute("save")
	require.Error(t, err)
}

func TestREPLExit(t *testing.T) {
	r, _ := newTestREPL(t)
	done, err := r.Execute("exit")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestREPLUnknownCommand(t *testing.T) {
	r, _ := newTestREPL(t)
	_, err := r.Execute("bogus")
	require.Error(t, err)
}
