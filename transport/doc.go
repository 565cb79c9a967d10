// Package transport is the HTTP client every REST call goes through.
//
// It attaches the persisted bearer token, decodes the backend's
// {success, message} envelope, and classifies failures into a small set of
// kinds surfaced to a Notifier. A 401 outside the login screen deletes the
// persisted token and invokes the UnauthorizedHandler; callers cannot opt out.
//
// # Architecture boundaries
//
// Classification ([Classify]) is a pure function. The redirect policy is an
// injected callback, so the client never knows how navigation works.
//
// # What this package must NOT do
//
//   - Hold session state beyond reading and deleting the persisted token.
//   - Import session, navigation, or dmsclient.
//   - Apply a client-side timeout unless configured.
package transport
