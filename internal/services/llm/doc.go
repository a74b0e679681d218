// Package llm provides an OpenRouter-compatible chat client used to translate
// dubbing dialogue.
//
// # Translation
//
// Client.Translate sends utterance texts in numbered batches with a prompt
// requesting JSON output and maps the returned lines back by id, so results
// keep the input order even when the model reorders them. A response that
// omits a line is an error.
//
// # Configuration
//
// Requires api_key and model, and optionally base_url, referer, title,
// timeout. The API key falls back to OPENROUTER_API_KEY.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive JSON response.
// Client.Translate: translate a list of texts.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions, and
// network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default). Context cancellation aborts retries immediately.
//
// # Decoding
//
// DecodeJSON strips code fences and surrounding prose and, as a last
// resort, repairs malformed JSON with github.com/kaptinlin/jsonrepair.
package llm
