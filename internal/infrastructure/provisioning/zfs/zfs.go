package zfs

import (
	"context"
	"os/exec"

	"github.com/zonepipe/zonepipe/internal/domain/pipeline"
)

// DatasetExists reports whether the named ZFS dataset already exists.
func DatasetExists(ctx context.Context, name string) (bool, error) {
	cmd := exec.CommandContext(ctx, "zfs", "list", "-H", "-o", "name", "-r", name)
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	if _, ok := err.(*exec.ExitError); ok {
		return false, nil
	}
	return false, pipeline.NewIOError("check zfs dataset", err)
}

// CreateDataset creates name, including any missing parent datasets (zfs
// create -p).
func CreateDataset(ctx context.Context, name string) error {
	cmd := exec.CommandContext(ctx, "zfs", "create", "-p", name)
	if err := cmd.Run(); err != nil {
		return &pipeline.DomainError{Code: pipeline.ErrCodeProvisioning, Message: "could not create dataset", Cause: err, Context: map[string]interface{}{"dataset": name}}
	}
	return nil
}
