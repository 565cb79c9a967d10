// Package session owns the client-side authentication state: the bearer
// token, the user record, and the permission and role sets.
//
// # Lifecycle
//
// A [Store] starts empty. [Store.Initialize] restores a persisted token and
// validates it with a current-user fetch; [Store.Login] establishes a new
// identity; [Store.Logout] and any failed current-user fetch clear it.
// Readers receive immutable [Session] snapshots.
//
// # Generations
//
// Every mutation that establishes or clears an identity bumps the session
// generation. Responses that arrive for an older generation are discarded,
// so a slow reply cannot resurrect a session that was logged out meanwhile.
//
// # Architecture boundaries
//
// The backend is reached through the [AuthAPI] interface; the token is
// persisted through a tokenstore.Store. Authorization questions are answered
// by the permission package over a [Session] snapshot.
//
// # What this package must NOT do
//
//   - Import dmsclient, navigation, or refresh.
//   - Schedule timers. Token freshness is the refresh package's job; it
//     learns about new tokens through [Store.OnToken].
package session
