// Package permission answers "can this identity do X" for the current session.
//
// # Permission codes
//
// A permission is a dot-segmented code, namespace.controller.action, e.g.
// files.browse.list. The backend sends either the string or the structured
// triple; both decode into [Permission] and are normalised once, at ingestion,
// to the canonical dotted string. Comparison is exact string equality.
//
// # Admin bypass
//
// [Evaluator.IsAdmin] is true when the user record carries the admin flag OR
// the role set contains a bypass role. Bypass role names are configuration
// ([BypassRoles]), not code. Permission checks honour the bypass; role checks
// do not.
//
// # Architecture boundaries
//
// Everything here is pure and side-effect free. The server remains the
// authoritative enforcer; these checks only drive what the client offers.
//
// # What this package must NOT do
//
//   - Perform I/O or hold session state.
//   - Import session, transport, or dmsclient.
package permission
