package ports

import "context"

// ProcessHost spawns a step's script inside a zone and hands back a handle
// for streaming its output and waiting on its exit (§4.A). Implementations
// shell out to `zlogin <zone> <command>`; tests substitute a fake that never
// touches a real zone.
type ProcessHost interface {
	Spawn(ctx context.Context, zone, script string) (ChildHandle, error)
}

// ChildHandle represents a single spawned child process. Stdout and Stderr
// may be read concurrently with each other and with Wait; Wait blocks until
// the process exits or ctx passed to Spawn is cancelled.
type ChildHandle interface {
	Stdout() <-chan string
	Stderr() <-chan string
	// Wait blocks until the child exits and returns its exit code. Wait is
	// safe to call exactly once; the output channels are closed once Wait
	// returns.
	Wait() (exitCode int, err error)
	// Kill terminates the child process. Engine.Run does not call it; a
	// running child is stopped through the ctx passed to Spawn.
	Kill() error
}
