// Package catalog turns the icon metadata file into the ordered list of work
// units the coordinator hands out.
//
// A work unit is an icon namespace such as "watson-health/3D-Cursor/16". The
// catalog preserves metadata order, rejects duplicate namespaces so that
// per-unit output paths never collide, and exposes a Cursor that advances
// monotonically so no unit is assigned twice or skipped.
package catalog
