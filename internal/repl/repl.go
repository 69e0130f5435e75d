package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"gopkg.in/yaml.v3"

	"github.com/zonepipe/zonepipe/internal/domain/pipeline"
	"github.com/zonepipe/zonepipe/internal/infrastructure/persistence"
	"github.com/zonepipe/zonepipe/internal/ports"
)

// REPL is the Config REPL & Persistence component (§4.F). It edits a draft
// Pipeline field-by-field and persists the validated result to XML.
type REPL struct {
	store  *persistence.Store
	logger ports.Logger
	out    io.Writer

	draft *pipeline.Pipeline
	stack []frame
}

// Option configures a REPL instance.
type Option func(*REPL)

// WithLogger injects a logger.
func WithLogger(logger ports.Logger) Option {
	return func(r *REPL) { r.logger = logger }
}

// WithOutput overrides where print/help output is written (tests use a
// buffer instead of stdout).
func WithOutput(w io.Writer) Option {
	return func(r *REPL) { r.out = w }
}

// New constructs a REPL persisting pipelines under store, starting with a
// fresh draft named name.
func New(store *persistence.Store, name string, opts ...Option) *REPL {
	r := &REPL{
		store: store,
		draft: &pipeline.Pipeline{Name: pipeline.SetValue(name)},
		out:   io.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drives an interactive readline session until the user exits or input
// is exhausted.
func (r *REPL) Run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          r.prompt(),
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return pipeline.NewIOError("start readline session", err)
	}
	defer rl.Close()

	for {
		rl.SetPrompt(r.prompt())
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return pipeline.NewIOError("read line", err)
		}

		done, execErr := r.Execute(line)
		if execErr != nil {
			fmt.Fprintln(r.out, execErr.Error())
		}
		if done {
			return nil
		}
	}
}

// Execute runs a single REPL command line. It returns done=true when the
// command was `exit` or `quit`.
func (r *REPL) Execute(line string) (done bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	cmd, args := fields[0], fields[1:]
	switch cmd {
	case "exit", "quit":
		return true, nil
	case "help":
		r.printHelp()
		return false, nil
	case "set":
		return false, r.cmdSet(args)
	case "add":
		return false, r.cmdAdd(args)
	case "select":
		return false, r.cmdSelect(args)
	case "up", "end":
		return false, r.cmdUp()
	case "print":
		return false, r.cmdPrint()
	case "save", "commit":
		return false, r.cmdSave()
	case "load":
		return false, r.cmdLoad(args)
	case "list":
		return false, r.cmdList()
	default:
		return false, pipeline.NewUnknownAttributeError("command", cmd)
	}
}

func (r *REPL) cmdSet(args []string) error {
	if len(args) != 1 {
		return pipeline.NewUnknownAttributeError("set", "usage: set key=value")
	}
	key, value, ok := strings.Cut(args[0], "=")
	if !ok {
		return pipeline.NewUnknownAttributeError("set", "usage: set key=value")
	}

	target, err := resolve(r.draft, r.stack)
	if err != nil {
		return err
	}
	return target.Set(key, value)
}

func (r *REPL) cmdAdd(args []string) error {
	if len(args) != 1 {
		return pipeline.NewUnknownAttributeError("add", "usage: add repo|package|step")
	}
	switch args[0] {
	case "repo":
		r.draft.AddRepo()
		r.stack = append(r.stack, frame{kind: "repo", index: len(r.draft.Repos) - 1})
	case "package":
		r.draft.AddPackage()
		r.stack = append(r.stack, frame{kind: "package", index: len(r.draft.Packages) - 1})
	case "step":
		r.draft.AddStep()
		r.stack = append(r.stack, frame{kind: "step", index: len(r.draft.Steps) - 1})
	default:
		return pipeline.NewUnknownAttributeError("add", args[0])
	}
	return nil
}

func (r *REPL) cmdSelect(args []string) error {
	if len(args) != 2 {
		return pipeline.NewUnknownAttributeError("select", "usage: select <kind> key=value")
	}
	kind := args[0]
	key, value, ok := strings.Cut(args[1], "=")
	if !ok {
		return pipeline.NewUnknownAttributeError("select", "usage: select <kind> key=value")
	}
	filter := &pipeline.Filter{Key: key, Value: value}

	switch kind {
	case "repo":
		for i, e := range r.draft.Repos {
			if e.Filter(filter) {
				r.stack = append(r.stack, frame{kind: "repo", index: i})
				return nil
			}
		}
	case "package":
		for i, e := range r.draft.Packages {
			if e.Filter(filter) {
				r.stack = append(r.stack, frame{kind: "package", index: i})
				return nil
			}
		}
	case "step":
		for i, e := range r.draft.Steps {
			if e.Filter(filter) {
				r.stack = append(r.stack, frame{kind: "step", index: i})
				return nil
			}
		}
	default:
		return pipeline.NewUnknownAttributeError("select", kind)
	}
	return &pipeline.DomainError{Code: pipeline.ErrCodeNotFound, Message: "no entity matched selection", Context: map[string]interface{}{"kind": kind, "key": key, "value": value}}
}

func (r *REPL) cmdUp() error {
	if len(r.stack) == 0 {
		return nil
	}
	r.stack = r.stack[:len(r.stack)-1]
	return nil
}

func (r *REPL) cmdPrint() error {
	target, err := resolve(r.draft, r.stack)
	if err != nil {
		return err
	}
	data, marshalErr := yaml.Marshal(target)
	if marshalErr != nil {
		return pipeline.NewIOError("render yaml", marshalErr)
	}
	fmt.Fprintf(r.out, "%s:\n%s", target.Label(), string(data))
	return nil
}

func (r *REPL) cmdSave() error {
	validated, err := r.draft.Validate()
	if err != nil {
		return err
	}
	if _, err := buildStepSet(validated); err != nil {
		return err
	}
	if err := r.store.Save(validated); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "saved %s\n", r.store.Path(validated.Name))
	return nil
}

func (r *REPL) cmdLoad(args []string) error {
	if len(args) != 1 {
		return pipeline.NewUnknownAttributeError("load", "usage: load <name>")
	}
	validated, err := r.store.Load(args[0])
	if err != nil {
		return err
	}
	r.draft = validated.Degrade()
	r.stack = nil
	return nil
}

func (r *REPL) cmdList() error {
	names, err := r.store.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(r.out, name)
	}
	return nil
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, "commands: set key=value | add repo|package|step | select <kind> key=value | up|end | print | save|commit | load <name> | list | exit")
}

func (r *REPL) prompt() string {
	name, _ := r.draft.Name.Get()
	if len(r.stack) == 0 {
		return name + "> "
	}
	top := r.stack[len(r.stack)-1]
	return fmt.Sprintf("%s/%s[%d]> ", name, top.kind, top.index)
}
