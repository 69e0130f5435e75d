package pipeline

// Filter narrows a `select <kind> key=value` REPL command to entities whose
// named attribute equals value. A nil *Filter matches everything.
type Filter struct {
	Key   string
	Value string
}

// Matches reports whether f selects the given attribute/value pair. A nil
// Filter always matches, mirroring the original Filterable trait's default
// "no filter means everything" semantics.
func (f *Filter) Matches(key, value string) bool {
	if f == nil {
		return true
	}
	return f.Key == key && f.Value == value
}

// DraftEntity is the shared operation table every draft kind (Repo, Package,
// Step, Pipeline) implements, so the REPL (§4.F) can dispatch `set`/`add`/`print`
// without a type switch at the call site. This is the Go rendering of §9's
// "tagged variant with a per-variant operation table" guidance: DraftEntity
// is the table, Kind is the tag used purely for `select <kind>` routing.
type DraftEntity interface {
	// Kind names the entity for REPL routing ("repo", "package", "step",
	// "pipeline").
	Kind() string
	// Label renders a short human identifier for REPL prompts, e.g. "step(build)".
	Label() string
	// Set assigns a single attribute by name, or returns an
	// UnknownAttribute-style DomainError.
	Set(key, value string) error
	// Filter reports whether this entity matches the given REPL filter.
	Filter(f *Filter) bool
}
