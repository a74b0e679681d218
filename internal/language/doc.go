// Package language normalizes the language tags that flow between the
// configuration, WhisperX, the translators, and the TTS voice catalogues.
//
// Parsing and canonicalisation use golang.org/x/text/language; display names
// come from golang.org/x/text/language/display.
package language
