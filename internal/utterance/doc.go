// Package utterance defines the timing records threaded through the dubbing
// pipeline.
//
// An Interval is one diarized speech span. A Record extends it with the
// artifacts each stage attaches (chunk path, transcript, translation, dubbed
// audio). Store owns the ordered collection for a run and exposes one setter
// per stage so a stage cannot overwrite another stage's fields.
//
// The typed errors InvalidIntervalError and MissingDubbedAudioError are
// classified as services.ErrValidation.
package utterance
