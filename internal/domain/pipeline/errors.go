package pipeline

import (
	"errors"
	"fmt"
)

// ErrorCode identifies well-known domain error categories used across the
// pipeline domain layer, following the taxonomy in §7 of the design
// document: ValidationError, ProvisioningError, SpawnError, StepFailed, and
// IoError each map onto one or more of these codes.
type ErrorCode string

const (
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeDuplicate    ErrorCode = "DUPLICATE_STEP"
	ErrCodeDependency   ErrorCode = "UNKNOWN_DEPENDENCY"
	ErrCodeCycle        ErrorCode = "DEPENDENCY_CYCLE"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeMissing      ErrorCode = "UNSET_FIELD"
	ErrCodeUnknownAttr  ErrorCode = "UNKNOWN_ATTRIBUTE"
	ErrCodeState        ErrorCode = "INVALID_STATE"
	ErrCodeExecution    ErrorCode = "EXECUTION_ERROR"
	ErrCodeSpawn        ErrorCode = "SPAWN_ERROR"
	ErrCodeProvisioning ErrorCode = "PROVISIONING_ERROR"
	ErrCodeTimeout      ErrorCode = "TIMEOUT"
	ErrCodeCancelled    ErrorCode = "CANCELLED"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeIO           ErrorCode = "IO_ERROR"
)

// NewIOError reports the IoError category from §7: filesystem and
// persistence failures unrelated to validation, provisioning, or spawning.
func NewIOError(message string, cause error) *DomainError {
	return newDomainError(ErrCodeIO, message, cause, nil)
}

// DomainError represents a typed error enriched with contextual data while
// remaining free of infrastructure dependencies.
type DomainError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As usage.
func (e *DomainError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is allows errors.Is comparisons against other DomainError values.
func (e *DomainError) Is(target error) bool {
	var domainErr *DomainError
	if !errors.As(target, &domainErr) {
		return false
	}
	return e.Code == domainErr.Code && e.Message == domainErr.Message
}

// WithContext clones the error with additional contextual metadata.
func (e *DomainError) WithContext(ctx map[string]interface{}) *DomainError {
	if e == nil {
		return nil
	}
	merged := make(map[string]interface{}, len(e.Context)+len(ctx))
	for k, v := range e.Context {
		merged[k] = v
	}
	for k, v := range ctx {
		merged[k] = v
	}
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   e.Cause,
		Context: merged,
	}
}

func newDomainError(code ErrorCode, message string, cause error, context map[string]interface{}) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: context,
	}
}

// Helper constructors named after the invariants in §3/§4.C of the design.

func newValidationError(message string, context map[string]interface{}) *DomainError {
	return newDomainError(ErrCodeValidation, message, nil, context)
}

// NewDuplicateStepError reports the DuplicateStep(name) diagnostic from §4.C
// check 1.
func NewDuplicateStepError(name string) *DomainError {
	return newDomainError(ErrCodeDuplicate, "duplicate step name", nil, map[string]interface{}{
		"step": name,
	})
}

// NewUnknownDependencyError reports UnknownDependency(step, dep) from §4.C
// check 2.
func NewUnknownDependencyError(step, dep string) *DomainError {
	return newDomainError(ErrCodeDependency, "dependency not found", nil, map[string]interface{}{
		"step":       step,
		"dependency": dep,
	})
}

// NewDependencyCycleError reports DependencyCycle(members) from §4.C check 3.
// members lists the step names that Kahn's algorithm could not drain.
func NewDependencyCycleError(members []string) *DomainError {
	return newDomainError(ErrCodeCycle, "circular dependency detected", nil, map[string]interface{}{
		"members": members,
	})
}

func newMissingFieldError(field string) *DomainError {
	return newDomainError(ErrCodeMissing, "field is unset", nil, map[string]interface{}{
		"field": field,
	})
}

// NewUnknownAttributeError reports an unrecognised `set key=value` attribute
// name submitted through the REPL (§4.F).
func NewUnknownAttributeError(kind, key string) *DomainError {
	return newDomainError(ErrCodeUnknownAttr, "unknown attribute", nil, map[string]interface{}{
		"kind": kind,
		"key":  key,
	})
}
