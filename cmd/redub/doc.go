// Package main hosts the redub CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration, applies per-run flag
// overrides and hands the work to internal/dubbing. Inspection commands read
// the per-video manifest and run the preflight checks without starting a dub.
// Process exit codes come from services.ExitCode so scripts can tell a bad
// input file from a missing backend.
package main
