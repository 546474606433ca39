package catalog_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"iconbuild/internal/catalog"
)

const sampleMetadata = `{
  "icons": [
    {"name": "16", "namespace": ["4K"], "size": 16, "descriptor": {"elem": "svg"}},
    {"name": "16", "namespace": ["Q", "circuit-composer"]},
    {"name": "16", "namespace": ["watson-health", "3D-Cursor"]},
    {"name": "add", "namespace": []}
  ]
}`

func TestParsePreservesOrderAndDerivesNamespaces(t *testing.T) {
	cat, err := catalog.Parse(strings.NewReader(sampleMetadata))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"4K/16", "Q/circuit-composer/16", "watson-health/3D-Cursor/16", "add"}
	if got := cat.Namespaces(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Namespaces = %v, want %v", got, want)
	}
	if cat.Len() != 4 {
		t.Fatalf("Len = %d, want 4", cat.Len())
	}
	icons := cat.Icons()
	if string(icons[0].Descriptor) != `{"elem": "svg"}` {
		t.Fatalf("descriptor not passed through: %s", icons[0].Descriptor)
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := os.WriteFile(path, []byte(sampleMetadata), 0o644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	cat, err := catalog.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Len() != 4 {
		t.Fatalf("Len = %d, want 4", cat.Len())
	}
	if _, err := catalog.Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing metadata")
	}
}

func TestNewRejectsDuplicatesAndEmptyNames(t *testing.T) {
	_, err := catalog.New([]catalog.Icon{
		{Name: "16", Path: []string{"add"}},
		{Name: "16", Path: []string{"add"}},
	})
	if !errors.Is(err, catalog.ErrDuplicateUnit) {
		t.Fatalf("expected ErrDuplicateUnit, got %v", err)
	}
	if _, err := catalog.New([]catalog.Icon{{Name: " "}}); err == nil {
		t.Fatal("expected empty name to be rejected")
	}
}

func TestNewRejectsUnitsSharingDerivedNames(t *testing.T) {
	tests := []struct {
		name  string
		units []string
	}{
		{"same file name", []string{"a-b/16", "a/b/16"}},
		{"same identifier", []string{"ab_c/16", "ab/c/16"}},
		{"same identifier across case", []string{"watson-health/cursor/16", "watsonHealth/cursor/16"}},
		{"identical namespace", []string{"add/16", "add/16"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := catalog.FromUnits(tt.units...)
			if !errors.Is(err, catalog.ErrDuplicateUnit) {
				t.Fatalf("FromUnits(%q) error = %v, want ErrDuplicateUnit", tt.units, err)
			}
			if !strings.Contains(err.Error(), tt.units[1]) {
				t.Fatalf("error should name the colliding unit: %v", err)
			}
		})
	}

	if _, err := catalog.FromUnits("add/16", "add/20", "Q/circuit-composer/16", "watson-health/3D-Cursor/16"); err != nil {
		t.Fatalf("distinct units rejected: %v", err)
	}
}

func TestCursorHandsOutEachUnitOnce(t *testing.T) {
	cat, err := catalog.FromUnits("a/16", "b/16", "c/16")
	if err != nil {
		t.Fatalf("FromUnits: %v", err)
	}
	cursor := cat.Cursor()
	var got []catalog.WorkUnit
	for {
		unit, ok := cursor.Next()
		if !ok {
			break
		}
		got = append(got, unit)
	}
	want := []catalog.WorkUnit{"a/16", "b/16", "c/16"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("cursor order = %v, want %v", got, want)
	}
	if remaining := cursor.Remaining(); remaining != 0 {
		t.Fatalf("remaining = %d after draining the cursor", remaining)
	}
	if _, ok := cursor.Next(); ok {
		t.Fatal("exhausted cursor must not hand out more units")
	}
}

func TestEmptyCatalogCursorIsExhausted(t *testing.T) {
	cat, err := catalog.New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := cat.Cursor().Next(); ok {
		t.Fatal("expected empty catalog cursor to be exhausted")
	}
}
