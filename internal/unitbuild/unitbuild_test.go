package unitbuild_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"iconbuild/internal/layout"
	"iconbuild/internal/logging"
	"iconbuild/internal/toolchain"
	"iconbuild/internal/unitbuild"
)

type recorder struct {
	steps      []string
	failTarget layout.Target
	failBundle string
}

func (r *recorder) Compile(_ context.Context, namespace string, target layout.Target) error {
	r.steps = append(r.steps, "compile:"+string(target))
	if target == r.failTarget {
		return errors.New("compile failed")
	}
	return nil
}

func (r *recorder) Bundle(_ context.Context, spec toolchain.BundleSpec) error {
	r.steps = append(r.steps, "bundle:"+spec.Format+":"+filepath.Base(spec.File))
	if filepath.Base(spec.File) == r.failBundle {
		return errors.New("bundle failed")
	}
	return nil
}

func newBuilder(rec *recorder) (*unitbuild.Builder, layout.Layout) {
	l := layout.New("/work/ts", "/work/dist")
	return unitbuild.New(l, "CarbonIconsAngular", rec, rec, logging.NewNop()), l
}

func TestProcessRunsStepsInOrder(t *testing.T) {
	rec := &recorder{}
	builder, _ := newBuilder(rec)

	if err := builder.Process(context.Background(), "Q/circuit-composer/16"); err != nil {
		t.Fatalf("Process: %v", err)
	}

	want := []string{
		"compile:es2015",
		"compile:es5",
		"bundle:es:Q-circuit-composer-16.js",
		"bundle:es:Q-circuit-composer-16.js",
		"bundle:umd:Q-circuit-composer-16.umd.js",
	}
	if len(rec.steps) != len(want) {
		t.Fatalf("steps = %v, want %v", rec.steps, want)
	}
	for i := range want {
		if rec.steps[i] != want[i] {
			t.Fatalf("step %d = %q, want %q", i, rec.steps[i], want[i])
		}
	}
}

func TestBundlesUseExpectedInputsAndNames(t *testing.T) {
	builder, l := newBuilder(&recorder{})
	ns := "watson-health/3D-Cursor/16"
	specs := builder.Bundles(ns)
	if len(specs) != 3 {
		t.Fatalf("expected 3 bundles, got %d", len(specs))
	}
	if specs[0].Input != l.ModuleEntry(ns, layout.TargetES5) || specs[0].File != l.FlatBundle(ns, layout.TargetES5) {
		t.Fatalf("fesm5 bundle = %+v", specs[0])
	}
	if specs[1].Input != l.ModuleEntry(ns, layout.TargetES2015) || specs[1].File != l.FlatBundle(ns, layout.TargetES2015) {
		t.Fatalf("fesm2015 bundle = %+v", specs[1])
	}
	if specs[2].Input != l.ModuleEntry(ns, layout.TargetES5) || specs[2].Format != toolchain.FormatUMD {
		t.Fatalf("umd bundle = %+v", specs[2])
	}
	for _, spec := range specs {
		if spec.Name != "CarbonIconsAngular.WatsonHealth3DCursor16" {
			t.Fatalf("bundle name = %q", spec.Name)
		}
	}
}

func TestProcessStopsAtFirstFailure(t *testing.T) {
	rec := &recorder{failTarget: layout.TargetES2015}
	builder, _ := newBuilder(rec)

	if err := builder.Process(context.Background(), "add/16"); err == nil {
		t.Fatal("expected compile failure")
	}
	if len(rec.steps) != 1 {
		t.Fatalf("expected processing to stop after first step, got %v", rec.steps)
	}

	rec = &recorder{failBundle: "add-16.umd.js"}
	builder, _ = newBuilder(rec)
	if err := builder.Process(context.Background(), "add/16"); err == nil {
		t.Fatal("expected bundle failure")
	}
	if len(rec.steps) != 5 {
		t.Fatalf("expected all steps attempted up to the umd bundle, got %v", rec.steps)
	}
}
