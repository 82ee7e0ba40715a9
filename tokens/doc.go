// Package tokens maintains a client's rotating bearer-token pair, hiding
// refresh coordination from callers.
//
// A Manager owns the {accessToken, refreshToken, expiresAt} record in a
// caller-supplied Store and exposes three things: a currently valid access
// token (refreshing proactively before expiry), an explicit refresh whose
// concurrent callers are coalesced into a single provider request, and an
// HTTP helper that attaches the bearer header and retries exactly once on
// 401. Any unrecoverable refresh failure wipes the local record first, so
// callers never operate on token state that is known bad.
package tokens
