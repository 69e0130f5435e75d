package zones

import "fmt"

// Kind distinguishes a pipeline's long-lived base zone from the disposable
// run zones cloned from it per invocation.
type Kind int

const (
	// Base is the zone a pipeline's repos and packages are provisioned
	// into once; every run clones from it.
	Base Kind = iota
	// Run is a disposable zone cloned from Base for a single run.
	Run
)

// PipelineZone names a single zone belonging to a pipeline, mirroring the
// root_path/path/name/vnic_name naming scheme of the zone layout.
type PipelineZone struct {
	Pipeline string
	Kind     Kind
	RunID    string
}

func (z PipelineZone) id() string {
	if z.Kind == Base {
		return "base"
	}
	return z.RunID
}

// RootPath is the dataset root all of a pipeline's zones live under.
func (z PipelineZone) RootPath() string {
	return fmt.Sprintf("/zones/ci/%s", z.Pipeline)
}

// Path is this zone's own dataset path.
func (z PipelineZone) Path() string {
	return fmt.Sprintf("%s/%s", z.RootPath(), z.id())
}

// Name is the zone's name as known to zoneadm/zlogin.
func (z PipelineZone) Name() string {
	return fmt.Sprintf("ci_%s_%s", z.Pipeline, z.id())
}

// VnicName is the name of the VNIC the zone's single network interface
// uses.
func (z PipelineZone) VnicName() string {
	return z.Name() + "_internal0"
}

// RunZone returns the disposable run-zone descriptor for this pipeline's
// base zone.
func (z PipelineZone) RunZone(runID string) PipelineZone {
	return PipelineZone{Pipeline: z.Pipeline, Kind: Run, RunID: runID}
}
