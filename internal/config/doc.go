// Package config loads, normalizes, and validates iconbuild configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and resolves the worker pool size against the
// host CPU count. The Config type centralizes every knob the build runner,
// workers, and CLI need so path layout, toolchain commands, and package
// naming are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
