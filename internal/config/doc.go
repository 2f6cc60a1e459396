// Package config merges tidypatch settings from defaults, a YAML config
// file, TIDYPATCH_* environment variables, and CLI flags, in that order of
// precedence.
package config
