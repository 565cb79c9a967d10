package dmsclient

import "errors"

var (
	// ErrInvalidConfig wraps every [Config.Validate] failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrBuilderUsed is returned when Build is called twice on one Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrRedisRequired is returned when the Redis token store is configured
	// without a Redis client.
	ErrRedisRequired = errors.New("redis token store requires a redis client")
	// ErrClientNotReady is returned by a nil or closed Client.
	ErrClientNotReady = errors.New("client not initialized")
	// ErrNotAuthenticated is returned by operations that need a signed-in
	// session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrLoginRejected is returned by [Client.Login] when the backend refuses
	// the credentials.
	ErrLoginRejected = errors.New("login rejected")
	// ErrPermissionDenied is returned by [Client.Require] when the session
	// lacks a permission.
	ErrPermissionDenied = errors.New("permission denied")
)
