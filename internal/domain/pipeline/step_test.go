package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepValidate(t *testing.T) {
	t.Run("valid step", func(t *testing.T) {
		s := &Step{Name: SetValue("build"), Script: SetValue("scripts/build.sh"), DependsOn: []string{"fetch", "fetch"}}
		vs, err := s.Validate()
		require.NoError(t, err)
		assert.Equal(t, "build", vs.Name)
		assert.Equal(t, []string{"fetch"}, vs.DependencyNames())
	})

	t.Run("missing name", func(t *testing.T) {
		s := &Step{Script: SetValue("scripts/build.sh")}
		_, err := s.Validate()
		requireCode(t, err, ErrCodeMissing)
	})

	t.Run("blank name", func(t *testing.T) {
		s := &Step{Name: SetValue("  "), Script: SetValue("scripts/build.sh")}
		_, err := s.Validate()
		requireCode(t, err, ErrCodeValidation)
	})

	t.Run("missing script", func(t *testing.T) {
		s := &Step{Name: SetValue("build")}
		_, err := s.Validate()
		requireCode(t, err, ErrCodeMissing)
	})
}

func TestStepSetUnknownAttribute(t *testing.T) {
	s := &Step{}
	err := s.Set("bogus", "value")
	requireCode(t, err, ErrCodeUnknownAttr)
}

func TestStepSetDepends(t *testing.T) {
	s := &Step{}
	require.NoError(t, s.Set("depends", "a, b ,, c"))
	assert.Equal(t, []string{"a", "b", "c"}, s.DependsOn)

	require.NoError(t, s.Set("depends", ""))
	assert.Nil(t, s.DependsOn)
}

func TestStepAddDependency(t *testing.T) {
	s := &Step{}
	s.AddDependency("a")
	s.AddDependency("a")
	vs, err := (&Step{Name: SetValue("x"), Script: SetValue("x.sh"), DependsOn: s.DependsOn}).Validate()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, vs.DependencyNames())
}

func TestStepFilter(t *testing.T) {
	s := &Step{Name: SetValue("build"), Script: SetValue("scripts/build.sh")}
	assert.True(t, s.Filter(nil))
	assert.True(t, s.Filter(&Filter{Key: "name", Value: "build"}))
	assert.False(t, s.Filter(&Filter{Key: "name", Value: "other"}))
	assert.False(t, s.Filter(&Filter{Key: "bogus", Value: "x"}))
}

func TestStepDegradeRoundTrip(t *testing.T) {
	original := &Step{Name: SetValue("build"), Script: SetValue("scripts/build.sh"), DependsOn: []string{"fetch"}}
	vs, err := original.Validate()
	require.NoError(t, err)

	degraded := vs.Degrade()
	assert.Equal(t, original.Name, degraded.Name)
	assert.Equal(t, original.Script, degraded.Script)
	assert.Equal(t, original.DependsOn, degraded.DependsOn)
}

func requireCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	require.Error(t, err)
	var domainErr *DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %T", err)
	assert.Equal(t, code, domainErr.Code)
}
