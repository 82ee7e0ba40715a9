// Package google exchanges a Google one-time authorization code for
// identity claims and tokens, normalizing provider failures and missing
// scopes into typed errors.
//
// The client performs no retries and persists nothing: it is a thin,
// explicitly constructed wrapper over the provider's token and userinfo
// endpoints that feeds the onboarding session state machine.
package google
