// Package whisperx transcribes utterance chunks with WhisperX.
//
// WhisperX runs through uvx so no Python environment has to be managed. Each
// chunk produces a JSON transcript next to the requested output directory;
// the service reads back the segment text and the language WhisperX detected,
// which the pipeline uses as the source language when none is configured.
//
// Configuration options (model, CUDA, VAD method) are passed via Config.
package whisperx
