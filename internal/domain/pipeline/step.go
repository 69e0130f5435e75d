package pipeline

import (
	"sort"
	"strings"
)

// Step is the draft form of a build/test step (§3): a name, a script path
// relative to the cloned repo tree, and an unordered, duplicate-tolerant set
// of dependency names.
type Step struct {
	Name      Value[string]
	Script    Value[string]
	DependsOn []string
}

// ValidatedStep is the frozen, persistence-ready, immutable form of Step.
// §3 invariant 1 (unique names) is enforced by Pipeline.Validate, not here,
// since uniqueness is a property of the containing collection.
type ValidatedStep struct {
	Name      string               `xml:"name,attr"`
	Script    string               `xml:"script,attr"`
	DependsOn []ValidatedDependency `xml:"depend"`
}

// ValidatedDependency is a single named edge in the step DAG (§3).
type ValidatedDependency struct {
	Name string `xml:"name,attr"`
}

// Kind implements DraftEntity.
func (s *Step) Kind() string { return "step" }

// Label implements DraftEntity.
func (s *Step) Label() string {
	if name, ok := s.Name.Get(); ok {
		return "step(" + name + ")"
	}
	return "step"
}

// Set implements DraftEntity. `depends` accepts a comma-separated list of
// step names and replaces the existing dependency set, matching the REPL's
// `set depends=a,b,c` ergonomics.
func (s *Step) Set(key, value string) error {
	switch key {
	case "name":
		s.Name = SetValue(value)
		return nil
	case "script":
		s.Script = SetValue(value)
		return nil
	case "depends":
		s.DependsOn = splitDependencies(value)
		return nil
	default:
		return NewUnknownAttributeError("step", key)
	}
}

// AddDependency appends a dependency name. Duplicates are tolerated per §3
// invariant "Dependency": "duplicates allowed but idempotent" — the DAG
// Validator treats them as a single edge.
func (s *Step) AddDependency(name string) {
	s.DependsOn = append(s.DependsOn, name)
}

// Filter implements DraftEntity.
func (s *Step) Filter(f *Filter) bool {
	if f == nil {
		return true
	}
	switch f.Key {
	case "name":
		name, ok := s.Name.Get()
		return ok && name == f.Value
	case "script":
		script, ok := s.Script.Get()
		return ok && script == f.Value
	default:
		return false
	}
}

// Validate promotes the draft to its Validated form. Name uniqueness and
// dependency reference closure are checked at the Pipeline level (§3
// invariants 1-2), not here, since they require the full sibling set.
func (s *Step) Validate() (ValidatedStep, error) {
	name, ok := s.Name.Get()
	if !ok {
		return ValidatedStep{}, newMissingFieldError("name")
	}
	if strings.TrimSpace(name) == "" {
		return ValidatedStep{}, newValidationError("step name must not be blank", nil)
	}
	script, ok := s.Script.Get()
	if !ok {
		return ValidatedStep{}, newMissingFieldError("script")
	}

	deps := dedupeDependencies(s.DependsOn)
	validated := ValidatedStep{Name: name, Script: script}
	for _, dep := range deps {
		validated.DependsOn = append(validated.DependsOn, ValidatedDependency{Name: dep})
	}
	return validated, nil
}

// Degrade reconstructs an editable Step draft from its Validated form.
func (v ValidatedStep) Degrade() *Step {
	deps := make([]string, len(v.DependsOn))
	for i, d := range v.DependsOn {
		deps[i] = d.Name
	}
	return &Step{
		Name:      SetValue(v.Name),
		Script:    SetValue(v.Script),
		DependsOn: deps,
	}
}

// DependencyNames returns the sorted, de-duplicated dependency names.
func (v ValidatedStep) DependencyNames() []string {
	names := make([]string, len(v.DependsOn))
	for i, d := range v.DependsOn {
		names[i] = d.Name
	}
	return dedupeDependencies(names)
}

func splitDependencies(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	deps := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			deps = append(deps, p)
		}
	}
	return deps
}

func dedupeDependencies(deps []string) []string {
	seen := make(map[string]struct{}, len(deps))
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
