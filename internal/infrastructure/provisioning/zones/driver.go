package zones

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/fatih/color"

	"github.com/zonepipe/zonepipe/internal/domain/pipeline"
	"github.com/zonepipe/zonepipe/internal/infrastructure/provisioning"
	"github.com/zonepipe/zonepipe/internal/infrastructure/provisioning/dladm"
	"github.com/zonepipe/zonepipe/internal/infrastructure/provisioning/zfs"
)

// Driver provisions and tears down zones for a pipeline (§4.E). Progress is
// reported to Out as each step completes, colorized the way the original
// CLI's owo_colors progress lines were.
type Driver struct {
	Out io.Writer
}

// New constructs a Driver writing progress to out.
func New(out io.Writer) *Driver {
	return &Driver{Out: out}
}

func (d *Driver) step(format string, args ...interface{}) func() {
	label := fmt.Sprintf(format, args...)
	fmt.Fprintf(d.Out, "%s...", color.CyanString(label))
	return func() {
		fmt.Fprintln(d.Out, color.GreenString(" DONE"))
	}
}

// dataset returns the ZFS dataset backing z's zonepath, matching the
// original's `rpool<path>` convention.
func dataset(z PipelineZone) string {
	return "rpool" + z.Path()
}

// EnsureBase brings a pipeline's long-lived base zone up from nothing:
// creates its backing dataset if missing, resets any stale zone of the same
// name, configures and installs it, clones the pipeline's repos into it,
// and installs its packages. Matches `ValidatedPipeline::apply`'s
// dataset/zone/package/clone sequence in `original_source/src/main.rs`.
func (d *Driver) EnsureBase(ctx context.Context, base PipelineZone, repos []pipeline.ValidatedRepo, packages []pipeline.ValidatedPackage) error {
	if err := d.ensureDataset(ctx, base); err != nil {
		return err
	}

	if err := d.resetIfExists(ctx, base); err != nil {
		return err
	}

	if err := func() error {
		done := d.step("Creating VNIC %s", base.VnicName())
		defer done()
		return dladm.EnsureNicExists(ctx, base.VnicName())
	}(); err != nil {
		return err
	}

	if err := d.ConfigureBase(ctx, base); err != nil {
		return err
	}

	if err := func() error {
		done := d.step("Installing zone %s", base.Name())
		defer done()
		return runZoneadm(ctx, base.Name(), "install")
	}(); err != nil {
		return err
	}

	if err := func() error {
		done := d.step("Booting zone %s", base.Name())
		defer done()
		return runZoneadm(ctx, base.Name(), "boot")
	}(); err != nil {
		return err
	}

	if err := provisioning.CloneRepos(ctx, d.Out, base.Path(), repos); err != nil {
		return err
	}

	return d.installPackages(ctx, base, packages)
}

func (d *Driver) ensureDataset(ctx context.Context, z PipelineZone) error {
	name := dataset(z)
	done := d.step("Creating ZFS dataset %s", name)
	defer done()

	exists, err := zfs.DatasetExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return zfs.CreateDataset(ctx, name)
}

// resetIfExists halts and uninstalls z if it's already configured, leaving
// its zonecfg entry in place so ConfigureBase can reconfigure it in place.
func (d *Driver) resetIfExists(ctx context.Context, z PipelineZone) error {
	state, err := zoneState(ctx, z.Name())
	if err != nil {
		return err
	}
	if state == "" {
		return nil
	}
	if state == "running" {
		if err := runZoneadm(ctx, z.Name(), "halt"); err != nil {
			return err
		}
	}
	return runZoneadm(ctx, z.Name(), "uninstall", "-F")
}

// installPackages installs every system-provided package into z via pkgin.
// Source-provider packages are built from a cloned repo by the pipeline's
// own steps, not installed as an OS package, so they're skipped here.
func (d *Driver) installPackages(ctx context.Context, z PipelineZone, packages []pipeline.ValidatedPackage) error {
	for _, pkg := range packages {
		if pkg.Provider != pipeline.ProviderSystem {
			continue
		}
		if err := func() error {
			done := d.step("Installing package %s", pkg.Name)
			defer done()
			return runZlogin(ctx, z.Name(), "pkgin -y install "+pkg.Name)
		}(); err != nil {
			return err
		}
	}
	return nil
}

// ConfigureBase configures z's zonecfg entry with the pkgsrc brand, a
// single net interface over its VNIC, and public DNS resolvers, matching
// configure_zone_with_default_config.
func (d *Driver) ConfigureBase(ctx context.Context, z PipelineZone) error {
	done := d.step("Configuring zone %s", z.Name())
	defer done()

	script := strings.Join([]string{
		"create",
		fmt.Sprintf("set zonepath=%s", z.Path()),
		"set brand=pkgsrc",
		"set autoboot=false",
		"add net",
		fmt.Sprintf("set physical=%s", z.VnicName()),
		"end",
		"add attr",
		"set name=resolvers",
		"set type=string",
		"set value=8.8.8.8,8.8.4.4",
		"end",
		"commit",
	}, "\n") + "\n"

	return runZonecfgScript(ctx, z.Name(), script)
}

// ForkRun clones a disposable run zone for runID from base, creating its
// VNIC and booting it, matching create_zone_from_base.
func (d *Driver) ForkRun(ctx context.Context, base PipelineZone, runID string) (PipelineZone, error) {
	run := base.RunZone(runID)

	if err := func() error {
		done := d.step("Creating VNIC %s", run.VnicName())
		defer done()
		return dladm.EnsureNicExists(ctx, run.VnicName())
	}(); err != nil {
		return PipelineZone{}, err
	}

	if err := d.ConfigureBase(ctx, run); err != nil {
		return PipelineZone{}, err
	}

	if err := func() error {
		done := d.step("Cloning source zone %s", base.Name())
		defer done()
		return runZoneadm(ctx, run.Name(), "clone", base.Name())
	}(); err != nil {
		return PipelineZone{}, err
	}

	if err := func() error {
		done := d.step("Booting zone %s", run.Name())
		defer done()
		return runZoneadm(ctx, run.Name(), "boot")
	}(); err != nil {
		return PipelineZone{}, err
	}

	return run, nil
}

// Dispose tears a run zone down entirely: halts and uninstalls it if
// installed, then removes its zonecfg entry, matching the
// cleanup()-then-delete() sequence `original_source/src/zones.rs` runs on a
// disposable run zone once a pipeline run finishes.
func (d *Driver) Dispose(ctx context.Context, z PipelineZone) error {
	done := d.step("Disposing zone %s", z.Name())
	defer done()

	if err := d.resetIfExists(ctx, z); err != nil {
		return err
	}
	return runZonecfgScript(ctx, z.Name(), "delete -F\n")
}

func zoneState(ctx context.Context, name string) (string, error) {
	out, err := exec.CommandContext(ctx, "zoneadm", "-z", name, "list", "-p").CombinedOutput()
	if err != nil {
		// zoneadm exits non-zero when the zone is not configured at all.
		return "", nil
	}
	fields := strings.Split(strings.TrimSpace(string(out)), ":")
	if len(fields) < 3 {
		return "", nil
	}
	return fields[2], nil
}

func runZonecfgScript(ctx context.Context, name, script string) error {
	cmd := exec.CommandContext(ctx, "zonecfg", "-z", name)
	cmd.Stdin = strings.NewReader(script)
	if out, err := cmd.CombinedOutput(); err != nil {
		return &pipeline.DomainError{Code: pipeline.ErrCodeProvisioning, Message: "zonecfg failed", Cause: err, Context: map[string]interface{}{"zone": name, "output": string(out)}}
	}
	return nil
}

func runZoneadm(ctx context.Context, name string, args ...string) error {
	cmdArgs := append([]string{"-z", name}, args...)
	cmd := exec.CommandContext(ctx, "zoneadm", cmdArgs...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return &pipeline.DomainError{Code: pipeline.ErrCodeProvisioning, Message: "zoneadm failed", Cause: err, Context: map[string]interface{}{"zone": name, "args": args, "output": string(out)}}
	}
	return nil
}

func runZlogin(ctx context.Context, zone, command string) error {
	cmd := exec.CommandContext(ctx, "zlogin", zone, command)
	if out, err := cmd.CombinedOutput(); err != nil {
		return &pipeline.DomainError{Code: pipeline.ErrCodeProvisioning, Message: "zlogin command failed", Cause: err, Context: map[string]interface{}{"zone": zone, "command": command, "output": string(out)}}
	}
	return nil
}
