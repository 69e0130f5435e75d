package repl

import (
	"github.com/zonepipe/zonepipe/internal/domain/pipeline"
)

// frame is one entry in the selection stack: which collection (repo,
// package, step) and which index within it the REPL is currently
// positioned on. Frames are resolved against the live draft on every
// command instead of holding a pointer directly, so that adding or
// re-validating entities elsewhere never leaves a frame referencing stale
// state (§9: index-path frames replace the original's Rc<RefCell<>>
// aliasing).
type frame struct {
	kind  string
	index int
}

// resolve walks the frame stack against p and returns the DraftEntity it
// currently points to, or the pipeline itself if the stack is empty.
func resolve(p *pipeline.Pipeline, stack []frame) (pipeline.DraftEntity, error) {
	if len(stack) == 0 {
		return p, nil
	}
	top := stack[len(stack)-1]
	switch top.kind {
	case "repo":
		if top.index < 0 || top.index >= len(p.Repos) {
			return nil, errOutOfRange(top)
		}
		return p.Repos[top.index], nil
	case "package":
		if top.index < 0 || top.index >= len(p.Packages) {
			return nil, errOutOfRange(top)
		}
		return p.Packages[top.index], nil
	case "step":
		if top.index < 0 || top.index >= len(p.Steps) {
			return nil, errOutOfRange(top)
		}
		return p.Steps[top.index], nil
	default:
		return nil, pipeline.NewUnknownAttributeError("selection", top.kind)
	}
}

func errOutOfRange(f frame) error {
	return pipeline.NewUnknownAttributeError(f.kind, "index")
}
