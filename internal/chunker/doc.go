// Package chunker cuts one audio file per diarized utterance from a source
// track.
//
// The source is decoded once and each interval is sliced at frame precision
// without resampling. Chunks are written next to each other in the output
// directory as <prefix>_<start>_<end>.<ext>, keeping the source extension,
// so a re-run over the same intervals overwrites the same files.
package chunker
