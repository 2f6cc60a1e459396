// Package cli wires together the Cobra command tree for the tidypatch
// binary.
//
// It defines the root command and subcommands (review, hook, version), binds
// flags into the configuration layer, invokes the review engine, and returns
// deterministic exit codes: 0 clean, 1 violations, 2 incomplete review or
// internal error.
package cli
