package pipeline

import "fmt"

// Value is a field that is either Unset or carries a concrete T. It models
// the Draft stage of every entity (§4.B): every field starts Unset and is
// mutated field-by-field under the REPL's `set key=value` command until
// `validate()` can promote the draft to its Validated counterpart.
type Value[T any] struct {
	set   bool
	value T
}

// SetValue returns a Value holding v.
func SetValue[T any](v T) Value[T] {
	return Value[T]{set: true, value: v}
}

// IsSet reports whether the field has been assigned.
func (v Value[T]) IsSet() bool {
	return v.set
}

// Get returns the underlying value and whether it was set.
func (v Value[T]) Get() (T, bool) {
	return v.value, v.set
}

// MustGet returns the underlying value, or the zero value of T if unset.
// Callers that need to distinguish the two cases should use Get instead.
func (v Value[T]) MustGet() T {
	return v.value
}

// String renders the value for REPL `print` output: "unset" when Unset,
// otherwise fmt's default rendering of the held value.
func (v Value[T]) String() string {
	if !v.set {
		return "unset"
	}
	return anyToString(v.value)
}

// MarshalYAML renders the field through String, so `print` shows the held
// value or "unset".
func (v Value[T]) MarshalYAML() (interface{}, error) {
	return v.String(), nil
}

func anyToString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
