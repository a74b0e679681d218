// Package dubbing orchestrates a complete dubbing run.
//
// A run validates the input video and the configured backends, then moves an
// utterance.Store through the stages in order:
//
//	extract -> separate -> diarize -> chunk -> transcribe -> translate ->
//	synthesize -> assemble -> subtitles -> remux -> publish
//
// Each stage runs with services.WithStage on the context so every log line
// carries run_id and stage. The record collection is saved to the output
// directory's manifest after transcription, translation and synthesis; update
// mode reloads it and resumes at translation. Runs sharing an output directory
// are serialized by an advisory lock file.
//
// Failures that map to a documented exit code (invalid input, missing
// ffmpeg, missing token or server, unsupported language) are returned wrapped
// with services.WithExitCode.
package dubbing
