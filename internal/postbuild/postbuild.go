// Package postbuild runs the sequential steps that follow a successful pool
// run: the universal bundle covering every namespace and the package
// metadata published next to the build output.
package postbuild

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"iconbuild/internal/catalog"
	"iconbuild/internal/config"
	"iconbuild/internal/fileutil"
	"iconbuild/internal/layout"
	"iconbuild/internal/logging"
	"iconbuild/internal/toolchain"
)

// Bundler produces one bundle.
type Bundler interface {
	Bundle(ctx context.Context, spec toolchain.BundleSpec) error
}

// Stage writes the post-processing artifacts.
type Stage struct {
	layout   layout.Layout
	pkg      config.Package
	manifest string
	bundler  Bundler
	logger   *slog.Logger
}

// New constructs the post-processing stage. manifest is the package.json
// template the published manifest is derived from.
func New(l layout.Layout, pkg config.Package, manifest string, bundler Bundler, logger *slog.Logger) *Stage {
	return &Stage{
		layout:   l,
		pkg:      pkg,
		manifest: manifest,
		bundler:  bundler,
		logger:   logging.NewComponentLogger(logger, "postbuild"),
	}
}

// Run writes the mega bundle and then the package metadata.
func (s *Stage) Run(ctx context.Context, cat *catalog.Catalog) error {
	if err := s.WriteMegaBundle(ctx); err != nil {
		return err
	}
	return s.WriteMetadata(cat)
}

// WriteMegaBundle bundles the ES5 root index into a single UMD file.
func (s *Stage) WriteMegaBundle(ctx context.Context) error {
	spec := toolchain.BundleSpec{
		Input:  s.layout.RootIndex(layout.TargetES5),
		File:   s.layout.MegaBundle(s.pkg.BundleName),
		Format: toolchain.FormatUMD,
		Name:   s.pkg.GlobalName,
	}
	s.logger.Info("writing mega bundle", logging.String("file", spec.File))
	if err := s.bundler.Bundle(ctx, spec); err != nil {
		return fmt.Errorf("write mega bundle: %w", err)
	}
	return nil
}

type metadataExport struct {
	From string `json:"from"`
}

type moduleMetadata struct {
	Symbolic string           `json:"__symbolic"`
	Version  int              `json:"version"`
	Metadata map[string]any   `json:"metadata"`
	Exports  []metadataExport `json:"exports"`
	ImportAs string           `json:"importAs"`
}

// EntryPoints returns the manifest fields pointing at the build output,
// relative to the output directory.
func (s *Stage) EntryPoints() map[string]string {
	bundle := "./bundles/" + s.pkg.BundleName + ".umd.js"
	return map[string]string{
		"esm5":     "./esm5/index.js",
		"esm2015":  "./esm2015/index.js",
		"fesm5":    "./fesm5/index.js",
		"fesm2015": "./fesm2015/index.js",
		"bundles":  bundle,
		"main":     bundle,
		"module":   "./fesm5/index.js",
		"typings":  "./index.d.ts",
		"metadata": "./index.metadata.json",
	}
}

// WriteMetadata writes package.json and index.metadata.json into the output
// directory. Exports follow catalog order.
func (s *Stage) WriteMetadata(cat *catalog.Catalog) error {
	manifest, err := s.readManifest()
	if err != nil {
		return err
	}
	for key, value := range s.EntryPoints() {
		manifest[key] = value
	}

	meta := moduleMetadata{
		Symbolic: "module",
		Version:  4,
		Metadata: map[string]any{},
		Exports:  make([]metadataExport, 0, cat.Len()),
		ImportAs: s.pkg.Name,
	}
	for _, namespace := range cat.Namespaces() {
		meta.Exports = append(meta.Exports, metadataExport{From: "./" + namespace})
	}

	if err := fileutil.WriteJSON(filepath.Join(s.layout.Dist, "package.json"), manifest); err != nil {
		return fmt.Errorf("write package manifest: %w", err)
	}
	if err := fileutil.WriteJSON(filepath.Join(s.layout.Dist, "index.metadata.json"), meta); err != nil {
		return fmt.Errorf("write module metadata: %w", err)
	}
	s.logger.Info("wrote package metadata",
		logging.Int("exports", len(meta.Exports)),
		logging.String("output_dir", s.layout.Dist),
	)
	return nil
}

func (s *Stage) readManifest() (map[string]any, error) {
	data, err := os.ReadFile(s.manifest)
	if err != nil {
		return nil, fmt.Errorf("read package manifest: %w", err)
	}
	manifest := map[string]any{}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decode package manifest %s: %w", s.manifest, err)
	}
	if manifest == nil {
		return nil, fmt.Errorf("decode package manifest %s: not a JSON object", s.manifest)
	}
	return manifest, nil
}
