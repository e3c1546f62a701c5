// Package llm provides an OpenAI-compatible chat completion client (OpenRouter
// by default) used by the fallback describer.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.CompleteJSON: send system/user prompts, receive a JSON payload.
// Client.CompleteWithAudio: same, with an audio clip attached as an
// input_audio content part.
// Client.HealthCheck: verify API key and model availability.
// DecodeLLMJSON: decode model output, tolerating code fences and prose around
// the JSON object.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions, and
// network timeouts with exponential backoff (base 1s, max 10s, up to 3
// attempts by default). Retry-After is honoured. Context cancellation aborts
// retries immediately.
package llm
