// Package redact strips likely secrets from diff text before it is embedded
// in a prompt and sent to a backend.
package redact
