// Package authkit provides short-lived, single-use identity-verification
// primitives for mobile/server authentication flows: one-time-passcode
// issuance and verification with rate limiting, and ephemeral onboarding
// session state, both built on an ephemeral key-value store with TTL
// semantics.
//
// The package deliberately owns no durable state. Users, provider links and
// refresh-token revocation records belong to the consuming application;
// authkit keeps only TTL-bound records in the injected kv.Store and never
// delivers codes itself (the caller sends the email/SMS).
//
// Construction follows a builder:
//
//	engine, err := authkit.New().
//		WithConfig(authkit.DefaultConfig()).
//		WithRedis(rdb).
//		Build()
//
// Companion packages cover the rest of a verification deployment:
// package google exchanges a provider authorization code for identity
// claims, package tokens maintains the client-side bearer-token pair, and
// package jwt mints the server-side pair handed out on completed
// authentication.
package authkit
