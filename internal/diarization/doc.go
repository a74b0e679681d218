// Package diarization turns an audio track into speaker-labelled speech
// intervals.
//
// An Engine reports raw tracks; Extractor validates and orders them into
// utterance.Interval values. Two engines are provided:
//
//   - Pyannote runs pyannote.audio's speaker-diarization pipeline through an
//     embedded Python script executed with uvx. It needs a Hugging Face token.
//   - Energy gates decoded PCM on frame RMS and labels every span SPEAKER_00.
//     It needs no models and is used when no token is available.
//
// Engine failures propagate unchanged; there is no whole-file fallback.
package diarization
