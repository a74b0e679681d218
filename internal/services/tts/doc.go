// Package tts synthesizes dubbed speech.
//
// Three providers share the Provider interface:
//
//   - Edge runs the edge-tts command through uvx.
//   - CLI runs any local synthesizer described by a JSON config file (voice
//     catalogue plus a command template with {text}, {voice} and {output}
//     placeholders).
//   - API talks to an HTTP server exposing GET /voices and POST /speak.
//
// SelectVoice and AssignVoices pick voices by target language, optional
// region, and speaker gender.
package tts
