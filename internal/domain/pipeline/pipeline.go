package pipeline

// Pipeline is the draft form of a complete pipeline configuration: a name,
// the repos to clone and packages to install into the base container, and
// the steps that run against the resulting tree (§3).
type Pipeline struct {
	Name     Value[string]
	Repos    []*Repo
	Packages []*Package
	Steps    []*Step
}

// ValidatedPipeline is the frozen, persistence-ready form of Pipeline. It is
// the unit written to and read from /etc/pipelines/<name>.xml (§6).
type ValidatedPipeline struct {
	Name     string             `xml:"name,attr"`
	Repos    []ValidatedRepo    `xml:"repo"`
	Packages []ValidatedPackage `xml:"package"`
	Steps    []ValidatedStep    `xml:"step"`
}

// Kind implements DraftEntity.
func (p *Pipeline) Kind() string { return "pipeline" }

// Label implements DraftEntity.
func (p *Pipeline) Label() string {
	if name, ok := p.Name.Get(); ok {
		return "pipeline(" + name + ")"
	}
	return "pipeline"
}

// Set implements DraftEntity.
func (p *Pipeline) Set(key, value string) error {
	switch key {
	case "name":
		p.Name = SetValue(value)
		return nil
	default:
		return NewUnknownAttributeError("pipeline", key)
	}
}

// Filter implements DraftEntity.
func (p *Pipeline) Filter(f *Filter) bool {
	if f == nil {
		return true
	}
	switch f.Key {
	case "name":
		name, ok := p.Name.Get()
		return ok && name == f.Value
	default:
		return false
	}
}

// AddRepo appends a new draft Repo and returns it for further `set` calls.
func (p *Pipeline) AddRepo() *Repo {
	r := &Repo{}
	p.Repos = append(p.Repos, r)
	return r
}

// AddPackage appends a new draft Package and returns it for further `set`
// calls.
func (p *Pipeline) AddPackage() *Package {
	pkg := &Package{}
	p.Packages = append(p.Packages, pkg)
	return pkg
}

// AddStep appends a new draft Step and returns it for further `set` calls.
func (p *Pipeline) AddStep() *Step {
	s := &Step{}
	p.Steps = append(p.Steps, s)
	return s
}

// Validate promotes the draft to its Validated form, enforcing the §3
// invariants that require the full sibling set: unique step names (1) and
// dependency reference closure (2). Acyclicity (3) is not checked here;
// runset.Validate checks it when it builds the step set.
func (p *Pipeline) Validate() (ValidatedPipeline, error) {
	name, ok := p.Name.Get()
	if !ok {
		return ValidatedPipeline{}, newMissingFieldError("name")
	}

	result := ValidatedPipeline{Name: name}

	for _, r := range p.Repos {
		vr, err := r.Validate()
		if err != nil {
			return ValidatedPipeline{}, err
		}
		result.Repos = append(result.Repos, vr)
	}

	for _, pkg := range p.Packages {
		vp, err := pkg.Validate()
		if err != nil {
			return ValidatedPipeline{}, err
		}
		result.Packages = append(result.Packages, vp)
	}

	seen := make(map[string]struct{}, len(p.Steps))
	for _, s := range p.Steps {
		vs, err := s.Validate()
		if err != nil {
			return ValidatedPipeline{}, err
		}
		if _, ok := seen[vs.Name]; ok {
			return ValidatedPipeline{}, NewDuplicateStepError(vs.Name)
		}
		seen[vs.Name] = struct{}{}
		result.Steps = append(result.Steps, vs)
	}

	for _, vs := range result.Steps {
		for _, dep := range vs.DependencyNames() {
			if _, ok := seen[dep]; !ok {
				return ValidatedPipeline{}, NewUnknownDependencyError(vs.Name, dep)
			}
		}
	}

	return result, nil
}

// Degrade reconstructs an editable Pipeline draft from its Validated form,
// as loaded back from XML persistence for the REPL's `load` command (§4.F).
func (v ValidatedPipeline) Degrade() *Pipeline {
	p := &Pipeline{Name: SetValue(v.Name)}
	for _, r := range v.Repos {
		p.Repos = append(p.Repos, r.Degrade())
	}
	for _, pkg := range v.Packages {
		p.Packages = append(p.Packages, pkg.Degrade())
	}
	for _, s := range v.Steps {
		p.Steps = append(p.Steps, s.Degrade())
	}
	return p
}

// StepByName looks up a validated step by name.
func (v ValidatedPipeline) StepByName(name string) (ValidatedStep, bool) {
	for _, s := range v.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return ValidatedStep{}, false
}
