// Package separation splits a soundtrack into vocals and background stems with
// Demucs, launched through uvx so no managed Python environment is needed.
package separation
