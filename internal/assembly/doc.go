// Package assembly rebuilds full-length audio tracks from dubbed utterances.
//
// Assemble lays every dubbed chunk over the background track at its original
// start time. RenderVocals does the same onto silence, producing a
// vocals-only track, and Merge sums a background and a vocals track into the
// final language-tagged audio.
//
// Pass-through is implicit: records with ForDubbing=false contribute nothing
// because the background already carries everything except the separated
// vocals. Chunks keep their natural length; they are never stretched or
// trimmed, and a chunk that runs past the end of the background extends the
// output. Overlapping chunks are summed with int16 saturation.
package assembly
