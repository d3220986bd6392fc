// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides the admin key protecting cache administration.

# Admin Keys

Admin keys use HMAC-SHA256 over a scope name to create deterministic,
verifiable keys:

	adminKey := auth.GenerateAdminKey(auth.CacheScope, salt)
	err := auth.ValidateAdminKey(auth.CacheScope, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same scope and salt always produce the same key, so nothing is stored.
Comparison is constant-time (hmac.Equal).

# Requests

Clients send the key in the X-Admin-Key header, or as a bearer token:

	key := auth.AdminKeyFromRequest(r)

ValidateAdminKey returns ErrMissingAdminKey for an empty key and
ErrInvalidAdminKey for a wrong one.
*/
package auth
