package persistence

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zonepipe/zonepipe/internal/domain/pipeline"
)

func sample() pipeline.ValidatedPipeline {
	return pipeline.ValidatedPipeline{
		Name:     "demo",
		Repos:    []pipeline.ValidatedRepo{{URL: "https://example.com/demo.git"}},
		Packages: []pipeline.ValidatedPackage{{Provider: pipeline.ProviderSystem, Name: "git"}},
		Steps: []pipeline.ValidatedStep{
			{Name: "build", Script: "scripts/build.sh"},
		},
	}
}

func TestStoreSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	require.NoError(t, store.Save(sample()))
	assert.FileExists(t, filepath.Join(dir, "demo.xml"))

	loaded, err := store.Load("demo")
	require.NoError(t, err)
	assert.Equal(t, sample(), loaded)
}

func TestStoreLoadMissing(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Load("missing")

	var domainErr *pipeline.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, pipeline.ErrCodeNotFound, domainErr.Code)
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	require.NoError(t, store.Save(sample()))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, names)
}

func TestStoreDelete(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	require.NoError(t, store.Save(sample()))
	require.NoError(t, store.Delete("demo"))

	_, err := store.Load("demo")
	require.Error(t, err)
}
