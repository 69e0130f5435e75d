package dladm

import (
	"context"
	"os/exec"

	"github.com/zonepipe/zonepipe/internal/domain/pipeline"
)

// NicExists reports whether the named VNIC already exists.
func NicExists(ctx context.Context, name string) (bool, error) {
	cmd := exec.CommandContext(ctx, "dladm", "show-vnic", name)
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		return false, nil
	}
	return false, pipeline.NewIOError("check vnic", err)
}

// EnsureNicExists creates the VNIC named name over the internal0 link if it
// does not already exist.
func EnsureNicExists(ctx context.Context, name string) error {
	exists, err := NicExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	cmd := exec.CommandContext(ctx, "dladm", "create-vnic", name, "-l", "internal0")
	if err := cmd.Run(); err != nil {
		return &pipeline.DomainError{Code: pipeline.ErrCodeProvisioning, Message: "could not create vnic", Cause: err, Context: map[string]interface{}{"vnic": name}}
	}
	return nil
}
