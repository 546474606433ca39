// Package codegen renders the framework component sources and the root
// public-API index files for every icon in a catalog.
package codegen

import (
	"bytes"
	"embed"
	"fmt"
	"log/slog"
	"path/filepath"
	"text/template"

	"iconbuild/internal/catalog"
	"iconbuild/internal/config"
	"iconbuild/internal/fileutil"
	"iconbuild/internal/layout"
	"iconbuild/internal/logging"
	"iconbuild/internal/naming"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("codegen").
	Funcs(template.FuncMap{"fileName": naming.FileName}).
	ParseFS(templateFS, "templates/*.tmpl"))

// Generator writes generated sources into a build layout.
type Generator struct {
	layout layout.Layout
	pkg    config.Package
	logger *slog.Logger
}

// New constructs a generator for the configured package.
func New(l layout.Layout, pkg config.Package, logger *slog.Logger) *Generator {
	return &Generator{
		layout: l,
		pkg:    pkg,
		logger: logging.NewComponentLogger(logger, "codegen"),
	}
}

type iconData struct {
	Namespace  string
	Module     string
	Component  string
	Selector   string
	Descriptor string
}

// Selector returns the component selector for a namespace.
func (g *Generator) Selector(namespace string) string {
	return g.pkg.SelectorPrefix + "-" + naming.Kebab(namespace)
}

// Generate creates the build directories, writes the public-API index files,
// and renders one component module per icon.
func (g *Generator) Generate(cat *catalog.Catalog) error {
	g.logger.Info("prepping build directories", logging.String("output_dir", g.layout.Dist))
	if err := g.layout.Ensure(); err != nil {
		return err
	}

	namespaces := cat.Namespaces()
	g.logger.Info("generating source components", logging.Int("icons", len(namespaces)))
	if err := g.writeIndexes(namespaces); err != nil {
		return err
	}

	for _, icon := range cat.Icons() {
		namespace := icon.Unit().String()
		descriptor := "{}"
		if len(bytes.TrimSpace(icon.Descriptor)) > 0 {
			descriptor = string(icon.Descriptor)
		}
		data := iconData{
			Namespace:  namespace,
			Module:     naming.ModuleName(namespace),
			Component:  naming.ComponentName(namespace),
			Selector:   g.Selector(namespace),
			Descriptor: descriptor,
		}
		if err := g.render("icon.ts.tmpl", g.layout.SourceFile(namespace), data); err != nil {
			return fmt.Errorf("generate %s: %w", namespace, err)
		}
		g.logger.Debug("generated component",
			logging.Namespace(namespace),
			logging.String("module", data.Module),
		)
	}

	return g.render("source_index.tmpl", filepath.Join(g.layout.TS, "index.ts"), namespaces)
}

func (g *Generator) writeIndexes(namespaces []string) error {
	files := []struct {
		template string
		path     string
	}{
		{"module_index.tmpl", filepath.Join(g.layout.Dist, "index.d.ts")},
		{"module_index.tmpl", g.layout.RootIndex(layout.TargetES5)},
		{"module_index.tmpl", g.layout.RootIndex(layout.TargetES2015)},
		{"flat_index.js.tmpl", filepath.Join(g.layout.FESM5, "index.js")},
		{"flat_index.js.tmpl", filepath.Join(g.layout.FESM2015, "index.js")},
	}
	for _, file := range files {
		if err := g.render(file.template, file.path, namespaces); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) render(name, path string, data any) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return fileutil.WriteFile(path, buf.Bytes())
}

// Clean removes generated sources and every output directory.
func (g *Generator) Clean() error {
	g.logger.Info("cleaning build directories",
		logging.String("source_dir", g.layout.TS),
		logging.String("output_dir", g.layout.Dist),
	)
	return g.layout.Clean()
}
