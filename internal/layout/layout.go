// Package layout owns the on-disk shape of a build: the generated TypeScript
// sources, the compiled module trees for each language target, the flattened
// bundles, and the universal bundles.
//
// Every per-namespace path is derived from the namespace alone, so two work
// units never write the same file.
package layout

import (
	"fmt"
	"os"
	"path/filepath"

	"iconbuild/internal/naming"
)

// Target is a compiler language target.
type Target string

const (
	TargetES2015 Target = "es2015"
	TargetES5    Target = "es5"
)

// ModuleDir returns the compiled module tree name for the target.
func (t Target) ModuleDir() string {
	switch t {
	case TargetES2015:
		return "esm2015"
	case TargetES5:
		return "esm5"
	default:
		return string(t)
	}
}

// Layout resolves build paths relative to a source and an output root.
type Layout struct {
	TS       string
	Dist     string
	ESM5     string
	ESM2015  string
	FESM5    string
	FESM2015 string
	Bundles  string
}

// New derives the layout from the source and output directories.
func New(sourceDir, outputDir string) Layout {
	return Layout{
		TS:       sourceDir,
		Dist:     outputDir,
		ESM5:     filepath.Join(outputDir, "esm5"),
		ESM2015:  filepath.Join(outputDir, "esm2015"),
		FESM5:    filepath.Join(outputDir, "fesm5"),
		FESM2015: filepath.Join(outputDir, "fesm2015"),
		Bundles:  filepath.Join(outputDir, "bundles"),
	}
}

// Dirs lists every build directory in creation order.
func (l Layout) Dirs() []string {
	return []string{l.TS, l.Dist, l.ESM5, l.ESM2015, l.FESM5, l.FESM2015, l.Bundles}
}

// Ensure creates every build directory.
func (l Layout) Ensure() error {
	for _, dir := range l.Dirs() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create build directory %q: %w", dir, err)
		}
	}
	return nil
}

// Clean removes the generated sources and the whole output tree.
func (l Layout) Clean() error {
	for _, dir := range []string{l.TS, l.Dist} {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove %q: %w", dir, err)
		}
	}
	return nil
}

// SourceDir is the generated source directory for a namespace.
func (l Layout) SourceDir(namespace string) string {
	return filepath.Join(l.TS, filepath.FromSlash(namespace))
}

// SourceFile is the generated component module for a namespace.
func (l Layout) SourceFile(namespace string) string {
	return filepath.Join(l.SourceDir(namespace), "icon.ts")
}

// TSConfig is the per-target compiler configuration for a namespace.
func (l Layout) TSConfig(namespace string, target Target) string {
	return filepath.Join(l.SourceDir(namespace), "tsconfig."+string(target)+".json")
}

// ModuleOutDir is where the compiler writes a namespace for a target.
func (l Layout) ModuleOutDir(namespace string, target Target) string {
	return filepath.Join(l.Dist, target.ModuleDir(), filepath.FromSlash(namespace))
}

// ModuleEntry is the flat module entry point the compiler emits.
func (l Layout) ModuleEntry(namespace string, target Target) string {
	return filepath.Join(l.ModuleOutDir(namespace, target), "index.js")
}

// DeclarationDir is where type declarations for a namespace are written.
func (l Layout) DeclarationDir(namespace string) string {
	return filepath.Join(l.Dist, filepath.FromSlash(namespace))
}

// FlatBundle is the flattened ES bundle for a namespace and target.
func (l Layout) FlatBundle(namespace string, target Target) string {
	dir := l.FESM5
	if target == TargetES2015 {
		dir = l.FESM2015
	}
	return filepath.Join(dir, naming.FileName(namespace)+".js")
}

// UMDBundle is the universal bundle for a namespace.
func (l Layout) UMDBundle(namespace string) string {
	return filepath.Join(l.Bundles, naming.FileName(namespace)+".umd.js")
}

// MegaBundle is the universal bundle covering every namespace.
func (l Layout) MegaBundle(bundleName string) string {
	return filepath.Join(l.Bundles, bundleName+".umd.js")
}

// RootIndex is the root entry point of a compiled module tree.
func (l Layout) RootIndex(target Target) string {
	return filepath.Join(l.Dist, target.ModuleDir(), "index.js")
}
