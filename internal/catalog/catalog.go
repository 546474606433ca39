package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"iconbuild/internal/naming"
)

// ErrDuplicateUnit reports two icons resolving to the same namespace, or to
// namespaces that would share output files or generated class names.
var ErrDuplicateUnit = errors.New("duplicate work unit")

// WorkUnit names one namespace's worth of generation, compilation, and
// bundling work.
type WorkUnit string

func (u WorkUnit) String() string { return string(u) }

// Icon is the subset of icon metadata the build needs. Descriptor is passed
// through to generated sources untouched.
type Icon struct {
	Name         string          `json:"name"`
	FriendlyName string          `json:"friendly_name,omitempty"`
	Path         []string        `json:"namespace"`
	Size         int             `json:"size,omitempty"`
	Descriptor   json.RawMessage `json:"descriptor,omitempty"`
}

// Unit returns the namespace for the icon: its namespace path and name joined
// by "/", or just the name when the path is empty.
func (i Icon) Unit() WorkUnit {
	parts := make([]string, 0, len(i.Path)+1)
	for _, part := range i.Path {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	parts = append(parts, strings.TrimSpace(i.Name))
	return WorkUnit(strings.Join(parts, "/"))
}

type metadataFile struct {
	Icons []Icon `json:"icons"`
}

// Catalog is the ordered, immutable set of work units for one run.
type Catalog struct {
	icons []Icon
	units []WorkUnit
}

// Load reads a metadata JSON file from disk.
func Load(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads metadata JSON of the form {"icons": [...]}.
func Parse(r io.Reader) (*Catalog, error) {
	var meta metadataFile
	if err := json.NewDecoder(r).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return New(meta.Icons)
}

// New builds a catalog from icons in order.
func New(icons []Icon) (*Catalog, error) {
	c := &Catalog{
		icons: make([]Icon, 0, len(icons)),
		units: make([]WorkUnit, 0, len(icons)),
	}
	seen := make(map[string]int, len(icons)*3)
	for idx, icon := range icons {
		if strings.TrimSpace(icon.Name) == "" {
			return nil, fmt.Errorf("icon %d: name is required", idx)
		}
		unit := icon.Unit()
		for _, key := range collisionKeys(unit) {
			if first, ok := seen[key]; ok {
				return nil, fmt.Errorf("%w: %q collides with %q (icons %d and %d)",
					ErrDuplicateUnit, unit, c.units[first], first, idx)
			}
			seen[key] = idx
		}
		c.icons = append(c.icons, icon)
		c.units = append(c.units, unit)
	}
	return c, nil
}

// collisionKeys lists every derived name that must be unique across the
// catalog. Units sharing any of them would write the same bundle or module
// files, or export the same symbols.
func collisionKeys(unit WorkUnit) []string {
	ns := string(unit)
	return []string{
		"ns:" + ns,
		"file:" + naming.FileName(ns),
		"id:" + naming.Identifier(ns),
		"selector:" + naming.Kebab(ns),
	}
}

// FromUnits builds a catalog from bare namespaces. The last path element
// becomes the icon name.
func FromUnits(units ...string) (*Catalog, error) {
	icons := make([]Icon, 0, len(units))
	for _, unit := range units {
		parts := strings.Split(strings.Trim(unit, "/"), "/")
		icons = append(icons, Icon{Name: parts[len(parts)-1], Path: parts[:len(parts)-1]})
	}
	return New(icons)
}

// Len returns the number of work units.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.units)
}

// Units returns a copy of the work units in catalog order.
func (c *Catalog) Units() []WorkUnit {
	if c == nil {
		return nil
	}
	out := make([]WorkUnit, len(c.units))
	copy(out, c.units)
	return out
}

// Namespaces returns the work units as plain strings in catalog order.
func (c *Catalog) Namespaces() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.units))
	for i, unit := range c.units {
		out[i] = string(unit)
	}
	return out
}

// Icons returns a copy of the icon metadata in catalog order.
func (c *Catalog) Icons() []Icon {
	if c == nil {
		return nil
	}
	out := make([]Icon, len(c.icons))
	copy(out, c.icons)
	return out
}

// Cursor returns a fresh cursor positioned at the first unit.
func (c *Catalog) Cursor() *Cursor {
	return &Cursor{units: c.Units()}
}

// Cursor hands out work units in catalog order exactly once each. It is not
// safe for concurrent use; the coordinator owns it from a single goroutine.
type Cursor struct {
	units []WorkUnit
	next  int
}

// Next returns the next unassigned unit and advances the cursor, or false
// when the catalog is exhausted.
func (c *Cursor) Next() (WorkUnit, bool) {
	if c.next >= len(c.units) {
		return "", false
	}
	unit := c.units[c.next]
	c.next++
	return unit, true
}

// Remaining returns how many units have not been handed out yet.
func (c *Cursor) Remaining() int {
	return len(c.units) - c.next
}
