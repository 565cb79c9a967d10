// Package api wraps the REST backend's resources in typed clients.
//
// Every call goes through a [Transport] (transport.Client in production),
// which attaches the bearer token and turns failures into
// *transport.APIError. Replies are decoded leniently: the backend is not
// consistent about whether data sits at the root of the reply or under a
// "data" key, so both are accepted.
//
// [Auth] implements session.AuthAPI.
package api
