// Package refresh keeps the bearer token fresh by refreshing it shortly
// before it expires.
//
// # Scheduling
//
// [Monitor.Arm] reads the token's exp claim. A token expiring within the
// threshold (five minutes by default) is refreshed immediately; otherwise a
// one-shot timer is set for expiry minus the threshold. A fired timer does
// not re-arm itself: the next Arm comes from the session store once the new
// token is committed.
//
// Every Arm and Disarm bumps an internal generation and stops the previous
// timer, so at most one refresh is ever pending. A callback that raced with
// a newer Arm sees a stale generation and does nothing.
//
// # Architecture boundaries
//
// The monitor depends on a [Refresher] (the session store) and an
// [ExpiryDecoder] (the jwt package). It never touches storage or the
// network itself.
//
// # What this package must NOT do
//
//   - Import session or dmsclient.
//   - Clear the session when a refresh fails.
package refresh
