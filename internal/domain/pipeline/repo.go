package pipeline

// Repo is the draft form of a source repository to clone into the base
// container (§2 component E, §6 schema `repo(url)`).
type Repo struct {
	URL Value[string]
}

// ValidatedRepo is the frozen, persistence-ready form of Repo.
type ValidatedRepo struct {
	URL string `xml:"url,attr"`
}

// Kind implements DraftEntity.
func (r *Repo) Kind() string { return "repo" }

// Label implements DraftEntity.
func (r *Repo) Label() string {
	if url, ok := r.URL.Get(); ok {
		return "repo(" + url + ")"
	}
	return "repo"
}

// Set implements DraftEntity.
func (r *Repo) Set(key, value string) error {
	switch key {
	case "url":
		r.URL = SetValue(value)
		return nil
	default:
		return NewUnknownAttributeError("repo", key)
	}
}

// Filter implements DraftEntity.
func (r *Repo) Filter(f *Filter) bool {
	if f == nil {
		return true
	}
	switch f.Key {
	case "url":
		url, ok := r.URL.Get()
		return ok && url == f.Value
	default:
		return false
	}
}

// Validate promotes the draft to its Validated form.
func (r *Repo) Validate() (ValidatedRepo, error) {
	url, ok := r.URL.Get()
	if !ok {
		return ValidatedRepo{}, newMissingFieldError("url")
	}
	return ValidatedRepo{URL: url}, nil
}

// Degrade reconstructs an editable Repo draft from its Validated form,
// implementing the reverse transition required by §4.B.
func (v ValidatedRepo) Degrade() *Repo {
	return &Repo{URL: SetValue(v.URL)}
}
