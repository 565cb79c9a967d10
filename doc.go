// Package dmsclient is a client for a media document management backend: it
// signs users in, keeps their access token fresh, answers permission
// questions, and guards navigation between the application's screens.
//
// A [Client] is assembled by a [Builder] and is safe for concurrent use. Call
// [Client.Initialize] once to restore a persisted session, then use the REST
// endpoint groups from [Client.API] and the guarded [Client.Navigate].
//
// # Architecture boundaries
//
// dmsclient is the wiring layer. Each concern lives in its own package:
//
//   - transport: HTTP exchange, failure classification, bearer attachment.
//   - api: typed endpoint groups over transport.
//   - session: the token and identity state machine.
//   - permission: permission codes, role sets, the admin bypass evaluator.
//   - navigation: route table, guard, navigator, menu.
//   - refresh: the token freshness monitor.
//   - tokenstore: where the access token survives restarts.
//
// The root package owns configuration, metrics and event dispatch, and
// connects the pieces: a 401 clears the session and returns to the login
// route, and every token change re-arms the freshness monitor.
//
// # What this package must NOT do
//
//   - Verify token signatures. Tokens are decoded only to read their expiry.
//   - Retry failed requests. Failures are classified and surfaced once.
//   - Perform network I/O during Build.
package dmsclient
