// Package tokenstore persists the bearer token between process runs.
//
// A Store holds exactly one value under one key: the current access token.
// Implementations are atomic at the granularity of that key.
//
// # Architecture boundaries
//
// This package owns durable token storage only. It does NOT decode tokens, decide
// whether a token is fresh, or talk to the REST backend.
//
// # What this package must NOT do
//
//   - Import dmsclient, session, or transport.
//   - Interpret token contents.
package tokenstore
