package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"iconbuild/internal/config"
)

type iconEntry struct {
	Name      string   `json:"name"`
	Namespace []string `json:"namespace"`
}

// WriteCatalog writes a metadata file listing the given namespaces and a
// minimal package manifest at the paths named by cfg.
func WriteCatalog(t testing.TB, cfg *config.Config, namespaces ...string) {
	t.Helper()

	icons := make([]iconEntry, 0, len(namespaces))
	for _, ns := range namespaces {
		parts := strings.Split(strings.Trim(ns, "/"), "/")
		icons = append(icons, iconEntry{Name: parts[len(parts)-1], Namespace: parts[:len(parts)-1]})
	}
	writeJSON(t, cfg.Paths.Metadata, map[string]any{"icons": icons})
	writeJSON(t, cfg.Paths.Manifest, map[string]any{
		"name":    cfg.Package.Name,
		"version": "0.0.0-test",
	})
}

func writeJSON(t testing.TB, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
