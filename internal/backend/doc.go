// Package backend abstracts LLM inference providers behind a single
// Submit-based Client interface.
//
// Two variants exist: Ollama (local models over the OpenAI-compatible chat
// endpoint, also covering LM Studio) and Anthropic (cloud, via the official
// SDK). They differ only in transport and auth.
//
// Failures surface as three typed kinds so callers can pick a policy per
// kind: [UnavailableError] and [TimeoutError] are transient and retried with
// bounded exponential back-off, [RejectedError] is final. Use [New] to obtain
// a Client by backend name.
package backend
