// Package cache is a file-based cache of raw backend responses, keyed by a
// hash of the backend name and prompt text. Entries expire by TTL.
package cache
