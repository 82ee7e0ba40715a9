// Package kv defines the ephemeral key-value store contract the toolkit is
// built on, together with a Redis-backed implementation and a key-prefix
// wrapper for namespacing.
//
// The contract is deliberately small: get, set-with-expiry, delete,
// increment, expire and ttl. Every record the toolkit keeps is a single
// key, so per-key atomicity of the backing store is all that is required.
package kv
