// Package file loads process-wide settings from a TOML file with
// environment variable overrides. Settings are read once at startup and
// immutable thereafter.
package file
