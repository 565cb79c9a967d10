// Package navigation decides whether a route transition may proceed.
//
// A [Router] holds the route table: nested [Route] records whose [Meta] is
// merged from root to leaf, the way the web client's router does it. Paths
// are matched with chi, so patterns such as /files/:id(\d+) work unchanged.
//
// A [Guard] runs before every transition and either allows it or redirects
// to the login route (no token, or the user could not be loaded) or the
// landing route (admin required, or already signed in). Per-route
// permissions are not enforced by the guard; [Router.Menu] uses them to
// decide which entries to offer.
//
// A [Navigator] ties both together: it resolves a path, follows route
// redirects, asks the guard, follows guard redirects and records the
// current location.
package navigation
