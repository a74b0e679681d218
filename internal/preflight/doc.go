// Package preflight provides readiness checks for the binaries, services,
// credentials and filesystem paths a dubbing run depends on.
//
// These checks run in two contexts:
//   - The dubbing pipeline calls RunAll before extracting audio. The first
//     failing check aborts the run with the check's exit code, so a missing
//     server or token is reported before hours of model inference.
//   - The CLI "redub preflight" command prints every result as a status line.
//
// Each check is gated by the configured backend; unused providers are skipped.
package preflight
