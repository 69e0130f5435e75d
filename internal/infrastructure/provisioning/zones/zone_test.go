package zones

import "testing"

func TestPipelineZoneNaming(t *testing.T) {
	base := PipelineZone{Pipeline: "demo", Kind: Base}
	if base.Name() != "ci_demo_base" {
		t.Fatalf("unexpected base name: %s", base.Name())
	}
	if base.Path() != "/zones/ci/demo/base" {
		t.Fatalf("unexpected base path: %s", base.Path())
	}

	run := base.RunZone("a9skl10")
	if run.Name() != "ci_demo_a9skl10" {
		t.Fatalf("unexpected run name: %s", run.Name())
	}
	if run.VnicName() != "ci_demo_a9skl10_internal0" {
		t.Fatalf("unexpected vnic name: %s", run.VnicName())
	}
}
