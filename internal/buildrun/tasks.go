package buildrun

import (
	"log/slog"

	"iconbuild/internal/catalog"
	"iconbuild/internal/codegen"
	"iconbuild/internal/config"
	"iconbuild/internal/layout"
)

// Generate renders sources without compiling them.
func Generate(cfg *config.Config, logger *slog.Logger) (*catalog.Catalog, error) {
	cat, err := catalog.Load(cfg.Paths.Metadata)
	if err != nil {
		return nil, err
	}
	l := layout.New(cfg.Paths.SourceDir, cfg.Paths.OutputDir)
	if err := codegen.New(l, cfg.Package, logger).Generate(cat); err != nil {
		return nil, err
	}
	return cat, nil
}

// Clean removes generated sources and build output.
func Clean(cfg *config.Config, logger *slog.Logger) error {
	l := layout.New(cfg.Paths.SourceDir, cfg.Paths.OutputDir)
	return codegen.New(l, cfg.Package, logger).Clean()
}
