// Package jwt reads the claims a client needs from an access token without
// verifying its signature. The backend is the only party holding the key;
// the client only learns when its token will expire.
package jwt
