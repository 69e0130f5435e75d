package pipeline

// ProviderKind enumerates the package sources named in §6: a system package
// manager entry, or a source package built from a cloned repository.
type ProviderKind string

const (
	ProviderSystem ProviderKind = "system"
	ProviderSource ProviderKind = "source"
)

func isValidProvider(p ProviderKind) bool {
	return p == ProviderSystem || p == ProviderSource
}

// Package is the draft form of an OS package to install into the base
// container (§6 schema `package(provider, name)`).
type Package struct {
	Provider Value[ProviderKind]
	Name     Value[string]
}

// ValidatedPackage is the frozen, persistence-ready form of Package.
type ValidatedPackage struct {
	Provider ProviderKind `xml:"provider,attr"`
	Name     string       `xml:"name,attr"`
}

// Kind implements DraftEntity.
func (p *Package) Kind() string { return "package" }

// Label implements DraftEntity.
func (p *Package) Label() string {
	if name, ok := p.Name.Get(); ok {
		return "package(" + name + ")"
	}
	return "package"
}

// Set implements DraftEntity.
func (p *Package) Set(key, value string) error {
	switch key {
	case "name":
		p.Name = SetValue(value)
		return nil
	case "provider":
		provider := ProviderKind(value)
		if !isValidProvider(provider) {
			return newValidationError("provider must be one of system, source", map[string]interface{}{"provider": value})
		}
		p.Provider = SetValue(provider)
		return nil
	default:
		return NewUnknownAttributeError("package", key)
	}
}

// Filter implements DraftEntity.
func (p *Package) Filter(f *Filter) bool {
	if f == nil {
		return true
	}
	switch f.Key {
	case "name":
		name, ok := p.Name.Get()
		return ok && name == f.Value
	case "provider":
		provider, ok := p.Provider.Get()
		return ok && string(provider) == f.Value
	default:
		return false
	}
}

// Validate promotes the draft to its Validated form.
func (p *Package) Validate() (ValidatedPackage, error) {
	name, ok := p.Name.Get()
	if !ok {
		return ValidatedPackage{}, newMissingFieldError("name")
	}
	provider, ok := p.Provider.Get()
	if !ok {
		return ValidatedPackage{}, newMissingFieldError("provider")
	}
	return ValidatedPackage{Provider: provider, Name: name}, nil
}

// Degrade reconstructs an editable Package draft from its Validated form.
func (v ValidatedPackage) Degrade() *Package {
	return &Package{
		Provider: SetValue(v.Provider),
		Name:     SetValue(v.Name),
	}
}
