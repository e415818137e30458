// Package redisconn implements the connection handle a session manages: a
// go-redis client with an observable lifecycle.
//
// A handle starts in StateNew. Open moves it to StateOpening and pings the
// server in the background, returning a Future; the handle ends up in
// StateOpen on success or StateClosed on failure. Close moves any handle
// through StateClosing to StateClosed. Wait blocks on a Future for at most the
// handle's sync timeout.
//
// The settings' AllowAdmin and MaxUnsent values are enforced with go-redis
// hooks: administrative commands are rejected with ErrAdminDisabled unless
// allowed, and at most MaxUnsent commands are in flight at once.
package redisconn
