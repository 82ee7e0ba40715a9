// Package session holds short-lived multi-step onboarding state addressed
// by an unguessable 256-bit token: which identifiers are verified so far,
// and an optional provider identity awaiting a linking decision.
//
// Sessions live in the key-value store under a TTL and additionally embed
// their own expiry timestamp; a record whose embedded expiry has passed is
// treated as not found and deleted even when the store has not evicted it
// yet. Updates preserve the store's remaining TTL, so a session's absolute
// lifetime is fixed at creation.
package session
