package codegen_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"iconbuild/internal/catalog"
	"iconbuild/internal/codegen"
	"iconbuild/internal/config"
	"iconbuild/internal/layout"
	"iconbuild/internal/logging"
)

func newGenerator(t *testing.T) (*codegen.Generator, layout.Layout) {
	t.Helper()
	base := t.TempDir()
	l := layout.New(filepath.Join(base, "ts"), filepath.Join(base, "dist"))
	pkg := config.Default().Package
	return codegen.New(l, pkg, logging.NewNop()), l
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestGenerateWritesComponentsAndIndexes(t *testing.T) {
	gen, l := newGenerator(t)
	cat, err := catalog.New([]catalog.Icon{
		{Name: "16", Path: []string{"4K"}},
		{Name: "16", Path: []string{"Q", "circuit-composer"}, Descriptor: []byte(`{"elem":"svg"}`)},
		{Name: "16", Path: []string{"watson-health", "3D-Cursor"}},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	if err := gen.Generate(cat); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	source := readFile(t, l.SourceFile("Q/circuit-composer/16"))
	for _, want := range []string{
		"selector: 'ibm-icon-q-circuit-composer16'",
		"export class QCircuitComposer16Module {}",
		"export class QCircuitComposer16Component implements OnInit",
		`const descriptor: any = {"elem":"svg"};`,
	} {
		if !strings.Contains(source, want) {
			t.Errorf("component source missing %q", want)
		}
	}

	if got := readFile(t, l.SourceFile("4K/16")); !strings.Contains(got, "const descriptor: any = {};") {
		t.Errorf("expected empty descriptor placeholder, got:\n%s", got)
	}

	esm := readFile(t, l.RootIndex(layout.TargetES5))
	wantESM := "export * from './4K/16/index';\n" +
		"export * from './Q/circuit-composer/16/index';\n" +
		"export * from './watson-health/3D-Cursor/16/index';\n"
	if esm != wantESM {
		t.Fatalf("esm5 index mismatch:\ngot  %q\nwant %q", esm, wantESM)
	}
	if got := readFile(t, l.RootIndex(layout.TargetES2015)); got != wantESM {
		t.Fatalf("esm2015 index mismatch: got %q", got)
	}
	if got := readFile(t, filepath.Join(l.Dist, "index.d.ts")); got != wantESM {
		t.Fatalf("typings index mismatch: got %q", got)
	}

	flat := readFile(t, filepath.Join(l.FESM5, "index.js"))
	if !strings.Contains(flat, "export * from './watson-health-3D-Cursor-16';") {
		t.Fatalf("flat index missing dashed entry: %q", flat)
	}

	root := readFile(t, filepath.Join(l.TS, "index.ts"))
	if !strings.Contains(root, "export * from './4K/16/icon';") {
		t.Fatalf("source index missing entry: %q", root)
	}
}

func TestSelector(t *testing.T) {
	gen, _ := newGenerator(t)
	tests := map[string]string{
		"4K/16":                      "ibm-icon-4-k16",
		"Q/circuit-composer/16":      "ibm-icon-q-circuit-composer16",
		"watson-health/3D-Cursor/16": "ibm-icon-watson-health3-d-cursor16",
	}
	for namespace, want := range tests {
		if got := gen.Selector(namespace); got != want {
			t.Errorf("Selector(%q) = %q, want %q", namespace, got, want)
		}
	}
}

func TestGenerateEmptyCatalog(t *testing.T) {
	gen, l := newGenerator(t)
	cat, err := catalog.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := gen.Generate(cat); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := readFile(t, l.RootIndex(layout.TargetES5)); got != "" {
		t.Fatalf("expected empty index, got %q", got)
	}
}

func TestClean(t *testing.T) {
	gen, l := newGenerator(t)
	cat, err := catalog.FromUnits("add")
	if err != nil {
		t.Fatal(err)
	}
	if err := gen.Generate(cat); err != nil {
		t.Fatal(err)
	}
	if err := gen.Clean(); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	for _, dir := range l.Dirs() {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, got %v", dir, err)
		}
	}
}
